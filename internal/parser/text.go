package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxLineBuffer = 4 * 1024 * 1024 // 4MB

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser handles delimited drilling exports (.txt, .csv, .tsv).
// The header line decides the delimiter: tab when present, otherwise comma.
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Name() string {
	return "delimited_text"
}

func (p *TextParser) CanParse(fileName string, head []byte) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".csv", ".tsv":
		return true
	case ".xlsx", ".xlsm", ".xls":
		return false
	}
	if len(head) == 0 || bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	// Allow a multi-byte rune cut off at the end of the sample.
	trimmed := head
	for i := 0; i < utf8.UTFMax && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return utf8.Valid(trimmed) && bytes.ContainsAny(head, "\t,")
}

func (p *TextParser) Parse(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)

	table := &Table{Records: make([]Record, 0, 256)}
	delim := "\t"
	lineNum := 0
	headerSeen := false

	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()
		if lineNum == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		if !utf8.Valid(raw) {
			return nil, decodeErr(p.Name(), "invalid UTF-8 on line %d", lineNum)
		}
		line := strings.TrimRight(string(raw), "\r")

		if !headerSeen {
			if !strings.Contains(line, "\t") && strings.Contains(line, ",") {
				delim = ","
			}
			table.Columns = splitFields(line, delim)
			headerSeen = true
			continue
		}

		// Whitespace-only lines separate blocks in some exports.
		if strings.TrimSpace(line) == "" {
			continue
		}

		values := splitFields(line, delim)
		rec := make(Record, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(values) {
				rec[col] = values[i]
			} else {
				rec[col] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, decodeErr(p.Name(), "line %d exceeds %d bytes", lineNum+1, maxLineBuffer)
		}
		return nil, &DecodeError{Parser: p.Name(), Err: err}
	}
	if !headerSeen {
		return nil, decodeErr(p.Name(), "empty file")
	}

	return table, nil
}

// splitFields splits a line and trims the surrounding whitespace and quotes of each cell.
// Comma lines go through encoding/csv so quoted cells may contain the delimiter.
func splitFields(line, delim string) []string {
	if delim == "," {
		if fields, err := splitCSVLine(line); err == nil {
			return fields
		}
	}
	parts := strings.Split(line, delim)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			part = strings.ReplaceAll(part[1:len(part)-1], `""`, `"`)
		}
		parts[i] = part
	}
	return parts
}

func splitCSVLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	fields, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}
