package parser

import (
	"fmt"
	"io"
	"time"
)

// Record is one data row keyed by header name.
// Text cells are strings; spreadsheet cells keep their native type (float64, bool or string).
// Absent spreadsheet cells have no key at all.
type Record map[string]any

// Table is the ordered result of parsing one file.
type Table struct {
	Columns []string
	Records []Record
}

// Parser defines the interface for drilling file parsers.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse reports whether the parser handles a file with this name and leading bytes.
	CanParse(fileName string, head []byte) bool
	// Parse reads the entire input and returns its rows in file order.
	Parse(r io.Reader) (*Table, error)
}

// DecodeError reports input that could not be read at the byte or structure level.
type DecodeError struct {
	Parser string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Parser == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Parser, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(parser string, format string, args ...any) *DecodeError {
	return &DecodeError{Parser: parser, Err: fmt.Errorf(format, args...)}
}

// FastTimestamp parses "YYYY-MM-DD HH:MM:SS[.fff]" (space or 'T' separated) as UTC.
// It is several times faster than time.Parse for the fixed layout.
func FastTimestamp(ts string) (time.Time, error) {
	// Minimum length: "2025-09-25 06:02:11" = 19 chars
	if len(ts) < 19 || ts[4] != '-' || ts[7] != '-' || (ts[10] != ' ' && ts[10] != 'T') ||
		ts[13] != ':' || ts[16] != ':' {
		return time.Time{}, fmt.Errorf("timestamp layout mismatch: %q", ts)
	}

	year := parseInt4(ts[0:4])
	month := parseInt2(ts[5:7])
	day := parseInt2(ts[8:10])
	hour := parseInt2(ts[11:13])
	min := parseInt2(ts[14:16])
	sec := parseInt2(ts[17:19])

	if year < 0 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return time.Time{}, fmt.Errorf("timestamp out of range: %q", ts)
	}

	rest := ts[19:]
	var nsec int
	if len(rest) > 1 && rest[0] == '.' {
		frac := rest[1:]
		n := 0
		for n < len(frac) && frac[n] >= '0' && frac[n] <= '9' {
			n++
		}
		digits := frac[:n]
		rest = frac[n:]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		nsec = parseIntN(digits, len(digits))
		for i := len(digits); i < 9; i++ {
			nsec *= 10
		}
	}
	// Trailing zone designator is accepted only as UTC.
	if rest != "" && rest != "Z" {
		return time.Time{}, fmt.Errorf("timestamp has unsupported suffix: %q", ts)
	}

	return time.Date(year, time.Month(month), day, hour, min, sec, nsec, time.UTC), nil
}

// parseInt2 parses a 2-digit decimal string. Returns -1 on error.
func parseInt2(s string) int {
	if len(s) != 2 {
		return -1
	}
	d1, d2 := s[0]-'0', s[1]-'0'
	if d1 > 9 || d2 > 9 {
		return -1
	}
	return int(d1)*10 + int(d2)
}

// parseInt4 parses a 4-digit decimal string. Returns -1 on error.
func parseInt4(s string) int {
	if len(s) != 4 {
		return -1
	}
	d1, d2, d3, d4 := s[0]-'0', s[1]-'0', s[2]-'0', s[3]-'0'
	if d1 > 9 || d2 > 9 || d3 > 9 || d4 > 9 {
		return -1
	}
	return int(d1)*1000 + int(d2)*100 + int(d3)*10 + int(d4)
}

// parseIntN parses an n-digit decimal string. Returns 0 on error.
func parseIntN(s string, n int) int {
	result := 0
	for i := 0; i < n; i++ {
		d := s[i] - '0'
		if d > 9 {
			return 0
		}
		result = result*10 + int(d)
	}
	return result
}
