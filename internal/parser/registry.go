package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoParser is returned when no registered parser accepts a file.
var ErrNoParser = errors.New("no suitable parser found")

// Registry holds all available parsers and provides auto-detection.
type Registry struct {
	parsers []Parser
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry returns a registry with the spreadsheet parser ahead of the text parser.
func NewRegistry() *Registry {
	return &Registry{
		parsers: []Parser{
			NewExcelParser(),
			NewTextParser(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser detects the correct parser from the file name and its leading bytes.
func (r *Registry) FindParser(fileName string, head []byte) (Parser, error) {
	for _, p := range r.parsers {
		if p.CanParse(fileName, head) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w for file: %s", ErrNoParser, fileName)
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (Parser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}
