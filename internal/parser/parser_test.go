package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleTSV = "WellId\tStandIndex\tStartDepth(ft)\tEndDepth(ft)\tOnBottomRop(ft/h)\n" +
	"W-7\t1\t6500\t6530\t120\n" +
	"W-7\t2\t6530\t6560\n" +
	"\n" +
	"   \n"

func TestTextParser_Parse(t *testing.T) {
	p := NewTextParser()

	table, err := p.Parse(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(table.Columns) != 5 {
		t.Fatalf("Expected 5 columns, got %d", len(table.Columns))
	}
	if len(table.Records) != 2 {
		t.Fatalf("Expected 2 records (blank lines skipped), got %d", len(table.Records))
	}

	first := table.Records[0]
	if first["StandIndex"] != "1" || first["OnBottomRop(ft/h)"] != "120" {
		t.Errorf("Unexpected first record: %v", first)
	}

	// missing trailing cell becomes empty string
	second := table.Records[1]
	if v, ok := second["OnBottomRop(ft/h)"]; !ok || v != "" {
		t.Errorf("Expected empty trailing cell, got %q (present=%v)", v, ok)
	}
}

func TestTextParser_CRLFAndBOM(t *testing.T) {
	p := NewTextParser()
	input := "\xEF\xBB\xBFStandIndex\tEndDepth(ft)\r\n3\t100\r\n"

	table, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table.Columns[0] != "StandIndex" {
		t.Errorf("BOM not stripped from header: %q", table.Columns[0])
	}
	if table.Columns[1] != "EndDepth(ft)" {
		t.Errorf("CR not stripped from header: %q", table.Columns[1])
	}
	if table.Records[0]["EndDepth(ft)"] != "100" {
		t.Errorf("CR not stripped from value: %q", table.Records[0]["EndDepth(ft)"])
	}
}

func TestTextParser_CommaFallback(t *testing.T) {
	p := NewTextParser()
	input := "StandIndex,StartDepth(ft),WellId\n4,\"7000\",\"Well \"\"A\"\"\"\n"

	table, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rec := table.Records[0]
	if rec["StartDepth(ft)"] != "7000" {
		t.Errorf("Expected unquoted 7000, got %q", rec["StartDepth(ft)"])
	}
	if rec["WellId"] != `Well "A"` {
		t.Errorf("Expected unescaped quotes, got %q", rec["WellId"])
	}
}

func TestTextParser_CommaFallbackQuotedDelimiter(t *testing.T) {
	p := NewTextParser()
	input := "WellId,StandIndex,StartDepth(ft)\n\"Well, A\",4,7000\nW-2, 5 ,\"7,100\"\nW-3,6\n"

	table, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(table.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(table.Records))
	}

	tests := []struct {
		row  int
		col  string
		want string
	}{
		{0, "WellId", "Well, A"},
		{0, "StandIndex", "4"},
		{0, "StartDepth(ft)", "7000"},
		{1, "StandIndex", "5"},
		{1, "StartDepth(ft)", "7,100"},
		{2, "StandIndex", "6"},
		{2, "StartDepth(ft)", ""},
	}
	for _, tt := range tests {
		if got := table.Records[tt.row][tt.col]; got != tt.want {
			t.Errorf("row %d %s: expected %q, got %q", tt.row, tt.col, tt.want, got)
		}
	}
}

func TestTextParser_DecodeErrors(t *testing.T) {
	p := NewTextParser()

	tests := []struct {
		name  string
		input string
	}{
		{"invalid utf8", "StandIndex\n\xff\xfe\xfd\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(strings.NewReader(tt.input))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Expected DecodeError, got %v", err)
			}
			if de.Parser != p.Name() {
				t.Errorf("Expected parser name %q, got %q", p.Name(), de.Parser)
			}
		})
	}
}

func TestTextParser_CanParse(t *testing.T) {
	p := NewTextParser()

	tests := []struct {
		name string
		file string
		head []byte
		want bool
	}{
		{"txt extension", "export.txt", nil, true},
		{"tsv extension", "export.TSV", nil, true},
		{"xlsx extension", "export.xlsx", []byte("a\tb"), false},
		{"unknown extension text content", "export.dat", []byte("a\tb\n1\t2"), true},
		{"binary content", "export.dat", []byte{0x00, 0x01, 0x02}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanParse(tt.file, tt.head); got != tt.want {
				t.Errorf("CanParse(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestFastTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-03-01 06:02:11", time.Date(2024, 3, 1, 6, 2, 11, 0, time.UTC), false},
		{"2024-03-01T06:02:11.5Z", time.Date(2024, 3, 1, 6, 2, 11, 500000000, time.UTC), false},
		{"2024-03-01 06:02:11.086", time.Date(2024, 3, 1, 6, 2, 11, 86000000, time.UTC), false},
		{"2024-13-01 06:02:11", time.Time{}, true},
		{"2024-03-01", time.Time{}, true},
		{"2024-03-01 06:02:11+02:00", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FastTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FastTimestamp(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("FastTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegistry_FindParser(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		file    string
		head    []byte
		want    string
		wantErr bool
	}{
		{"data.txt", []byte("StandIndex\t"), "delimited_text", false},
		{"data.xlsx", nil, "excel", false},
		{"upload.bin", []byte("PK\x03\x04rest"), "excel", false},
		{"upload.bin", []byte{0x00, 0x00}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p, err := r.FindParser(tt.file, tt.head)
			if tt.wantErr {
				if !errors.Is(err, ErrNoParser) {
					t.Fatalf("Expected ErrNoParser, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindParser failed: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, p.Name())
			}
		})
	}

	if _, err := r.GetParserByName("EXCEL"); err != nil {
		t.Errorf("GetParserByName should be case-insensitive: %v", err)
	}
}
