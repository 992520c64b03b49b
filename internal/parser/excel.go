package parser

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ExcelParser reads the first sheet of a workbook. The first row is the header.
type ExcelParser struct{}

func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func (p *ExcelParser) Name() string {
	return "excel"
}

func (p *ExcelParser) CanParse(fileName string, head []byte) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return bytes.HasPrefix(head, zipMagic) || bytes.HasPrefix(head, oleMagic)
}

func (p *ExcelParser) Parse(r io.Reader) (*Table, error) {
	head := make([]byte, len(oleMagic))
	n, _ := io.ReadFull(r, head)
	head = head[:n]
	if bytes.HasPrefix(head, oleMagic) {
		return nil, decodeErr(p.Name(), "legacy .xls workbooks are not supported, save as .xlsx")
	}

	f, err := excelize.OpenReader(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, decodeErr(p.Name(), "opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, decodeErr(p.Name(), "workbook has no sheets")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, decodeErr(p.Name(), "reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, decodeErr(p.Name(), "sheet %q is empty", sheet)
	}

	table := &Table{
		Columns: make([]string, len(rows[0])),
		Records: make([]Record, 0, len(rows)-1),
	}
	for i, h := range rows[0] {
		table.Columns[i] = strings.TrimSpace(h)
	}

	for ri, row := range rows[1:] {
		rec := make(Record, len(row))
		for ci, raw := range row {
			if ci >= len(table.Columns) || raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return nil, decodeErr(p.Name(), "cell (%d,%d): %w", ci+1, ri+2, err)
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, decodeErr(p.Name(), "cell %s: %w", cell, err)
			}
			rec[table.Columns[ci]] = nativeValue(typ, raw)
		}
		if len(rec) == 0 {
			continue
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// nativeValue converts a raw cell value to float64, bool or string by cell type.
func nativeValue(typ excelize.CellType, raw string) any {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	default:
		return raw
	}
}
