// Package ingest runs an uploaded file through detection, parsing and normalization.
package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/rig-dashboard/backend/internal/drilling"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/parser"
)

// sniffSize is how many leading bytes are handed to parser detection.
const sniffSize = 512

var gzipMagic = []byte{0x1f, 0x8b}

// Result is a successfully ingested file.
type Result struct {
	Dataset    *models.Dataset
	ParserName string
	// DetectedAs is the file name handed to parser detection, without any .gz suffix.
	DetectedAs string
	Duration   time.Duration
}

// Pipeline turns raw file content into a normalized dataset.
type Pipeline struct {
	registry   *parser.Registry
	normalizer *drilling.Normalizer
	log        zerolog.Logger
}

// NewPipeline creates a pipeline over the given registry; nil uses the global one.
func NewPipeline(registry *parser.Registry) *Pipeline {
	if registry == nil {
		registry = parser.GetGlobalRegistry()
	}
	return &Pipeline{
		registry:   registry,
		normalizer: drilling.NewNormalizer(),
		log:        logger.Get("ingest"),
	}
}

// ProcessFile opens path and processes it under its base name.
func (p *Pipeline) ProcessFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return p.Process(filepath.Base(path), f)
}

// Process reads the whole of r in one pass. name drives format detection together
// with the leading bytes. Gzip input is decompressed transparently.
// Errors are *parser.DecodeError or *drilling.NoValidDataError.
func (p *Pipeline) Process(name string, r io.Reader) (*Result, error) {
	start := time.Now()

	br := bufio.NewReaderSize(r, 64*1024)
	head, err := peek(br, len(gzipMagic))
	if err != nil {
		return nil, &parser.DecodeError{Parser: "ingest", Err: err}
	}

	var src io.Reader = br
	gzSuffix := strings.HasSuffix(strings.ToLower(name), ".gz")
	if gzSuffix || bytes.HasPrefix(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &parser.DecodeError{Parser: "gzip", Err: err}
		}
		defer zr.Close()
		if gzSuffix {
			name = name[:len(name)-len(".gz")]
		}
		src = zr
		p.log.Debug().Str("file", name).Msg("decompressing gzip upload")
	}

	body := bufio.NewReaderSize(src, 64*1024)
	head, err = peek(body, sniffSize)
	if err != nil {
		return nil, &parser.DecodeError{Parser: "ingest", Err: err}
	}

	fp, err := p.registry.FindParser(name, head)
	if err != nil {
		return nil, &parser.DecodeError{Err: err}
	}

	table, err := fp.Parse(body)
	if err != nil {
		p.log.Warn().Err(err).Str("file", name).Str("parser", fp.Name()).Msg("decode failed")
		return nil, err
	}

	ds, err := p.normalizer.Normalize(table.Records)
	if err != nil {
		p.log.Warn().Err(err).Str("file", name).Int("rows", len(table.Records)).Msg("no usable rows")
		return nil, err
	}

	elapsed := time.Since(start)
	p.log.Info().
		Str("file", name).
		Str("parser", fp.Name()).
		Int("rows", ds.RowCount).
		Int("stands", len(ds.Stands)).
		Int("skipped", ds.SkippedRows).
		Dur("elapsed", elapsed).
		Msg("ingested drilling file")

	return &Result{Dataset: ds, ParserName: fp.Name(), DetectedAs: name, Duration: elapsed}, nil
}

// peek returns up to n leading bytes without consuming them. Short input is not an error.
func peek(br *bufio.Reader, n int) ([]byte, error) {
	head, err := br.Peek(n)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	return head, nil
}
