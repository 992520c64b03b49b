package parser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for ri, row := range rows {
		for ci, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExcelParser_Parse(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"WellId", "StandIndex", "StartDepth(ft)", "EndDepth(ft)", "OnBottomRop(ft/h)", "Note"},
		{"W-9", 2, 6530.0, 6560.0, 90.5, "ok"},
		{nil, nil, nil, nil, nil, nil},
		{"W-9", "1", 6500, 6530, 120, nil},
	})

	p := NewExcelParser()
	table, err := p.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"WellId", "StandIndex", "StartDepth(ft)", "EndDepth(ft)", "OnBottomRop(ft/h)", "Note"}, table.Columns)
	require.Len(t, table.Records, 2, "empty rows are skipped")

	first := table.Records[0]
	assert.Equal(t, "W-9", first["WellId"])
	assert.Equal(t, 2.0, first["StandIndex"])
	assert.Equal(t, 90.5, first["OnBottomRop(ft/h)"])

	// text cells stay text even when numeric-looking
	second := table.Records[1]
	assert.Equal(t, "1", second["StandIndex"])
	_, hasNote := second["Note"]
	assert.False(t, hasNote, "absent cells have no key")
}

func TestExcelParser_Errors(t *testing.T) {
	p := NewExcelParser()

	tests := []struct {
		name  string
		input []byte
	}{
		{"corrupt zip", []byte("PK\x03\x04garbage")},
		{"legacy xls", append([]byte{}, oleMagic...)},
		{"plain text", []byte("StandIndex\t1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(bytes.NewReader(tt.input))
			var de *DecodeError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, "excel", de.Parser)
		})
	}
}

func TestExcelParser_CanParse(t *testing.T) {
	p := NewExcelParser()
	assert.True(t, p.CanParse("report.XLSX", nil))
	assert.True(t, p.CanParse("report.xls", nil))
	assert.True(t, p.CanParse("report", []byte("PK\x03\x04")))
	assert.False(t, p.CanParse("report.txt", []byte("StandIndex")))
}
