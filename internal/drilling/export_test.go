package drilling

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/parser"
)

func TestExportWorkbook_RoundTrip(t *testing.T) {
	first := row("1", "6500", "6530.5", "120.25")
	first[ColStandType] = "Slide"
	first[ColStartTime] = "2024-03-01 02:00:00"
	first[ColEndTime] = "2024-03-01 02:45:10"
	first[ColRotaryDuration] = "5400"
	first[ColDrillingInControl] = "90"
	first[ColDrillingOutCtrl] = "10"
	first[ColPreInControl] = "180"
	first[ColPreOutControl] = "60"
	first[ColOpsLimitTorque] = "3"

	second := row("2", "6530.5", "6590", "40")
	second[ColWOB] = "18"
	second[ColConnection] = "1200"

	ds, err := NewNormalizer().Normalize([]parser.Record{second, first})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportWorkbook(&buf, ds))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ExportSheet, f.GetSheetName(0))
	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportColumns, rows[0])
	f.Close()

	table, err := parser.NewExcelParser().Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	again, err := NewNormalizer().Normalize(table.Records)
	require.NoError(t, err)

	assert.Equal(t, ds.WellID, again.WellID)
	assert.Equal(t, ds.Stands, again.Stands)
	assert.Nil(t, again.Stands[1].StartTime)
}

func TestExportWorkbook_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportWorkbook(&buf, &models.Dataset{WellID: "W"}))

	_, err := parser.NewExcelParser().Parse(bytes.NewReader(buf.Bytes()))
	// A header-only sheet decodes to zero records.
	assert.NoError(t, err)
}
