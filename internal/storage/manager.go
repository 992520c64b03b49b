package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rig-dashboard/backend/internal/models"
)

// ErrFileNotFound is returned for unknown file ids.
var ErrFileNotFound = errors.New("file not found")

// File statuses.
const (
	StatusUploaded = "uploaded"
	StatusIngested = "ingested"
	StatusError    = "error"
)

// Store defines the interface for uploaded drilling file storage.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
	Open(id string) (io.ReadCloser, *models.FileInfo, error)
	SetStatus(id, status string) error
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem.
// The index lives in memory; uploads do not survive a restart.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
	maxFiles  int
}

// NewLocalStore creates a new LocalStore. maxFiles <= 0 keeps every upload.
func NewLocalStore(uploadDir string, maxFiles int) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
		maxFiles:  maxFiles,
	}, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrFileNotFound, id)
}

// Save saves a file to the local filesystem, pruning the oldest uploads beyond maxFiles.
func (s *LocalStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       filepath.Base(name),
		Size:       size,
		UploadedAt: time.Now(),
		Status:     StatusUploaded,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info
	s.pruneLocked()

	return copyInfo(info), nil
}

func (s *LocalStore) pruneLocked() {
	if s.maxFiles <= 0 || len(s.files) <= s.maxFiles {
		return
	}
	list := s.sortedLocked()
	for _, info := range list[s.maxFiles:] {
		os.Remove(filepath.Join(s.uploadDir, info.ID))
		delete(s.files, info.ID)
	}
}

// sortedLocked returns the index sorted by UploadedAt desc.
func (s *LocalStore) sortedLocked() []*models.FileInfo {
	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
	return list
}

func copyInfo(info *models.FileInfo) *models.FileInfo {
	c := *info
	return &c
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, notFound(id)
	}

	return copyInfo(info), nil
}

// List returns the most recent files.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sortedLocked()
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]*models.FileInfo, len(list))
	for i, info := range list {
		out[i] = copyInfo(info)
	}
	return out, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return notFound(id)
	}

	path := filepath.Join(s.uploadDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return nil
}

// Open returns a reader over the stored content and its metadata.
func (s *LocalStore) Open(id string) (io.ReadCloser, *models.FileInfo, error) {
	info, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.uploadDir, id))
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, info, nil
}

// SetStatus records the ingest outcome of a file.
func (s *LocalStore) SetStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return notFound(id)
	}
	info.Status = status
	return nil
}

// GetFilePath returns the absolute path to a file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", notFound(id)
	}

	return filepath.Join(s.uploadDir, id), nil
}
