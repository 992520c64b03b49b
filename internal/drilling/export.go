package drilling

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rig-dashboard/backend/internal/models"
)

// ExportSheet is the sheet name written by ExportWorkbook.
const ExportSheet = "Stands"

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportColumns is the header row of an exported workbook, in source column names.
var ExportColumns = []string{
	ColWellID, ColStandIndex, ColStandType, ColStartTime, ColEndTime,
	ColStartDepth, ColEndDepth, ColROP, ColWOB, ColRPM, ColTorque, ColFlowRate,
	ColRotaryDuration, ColSlideDuration,
	ColConnection, ColPreConnection, ColPostConnection,
	ColPreInControl, ColPreOutControl, ColPostInControl, ColPostOutControl,
	ColDrillingInControl, ColDrillingOutCtrl,
	ColOpsLimitROP, ColOpsLimitWOB, ColOpsLimitTorque, ColOpsLimitRPM, ColOpsLimitDiffP,
}

// ExportWorkbook writes the dataset as an xlsx workbook that ingests back to the same stands.
func ExportWorkbook(w io.Writer, ds *models.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return fmt.Errorf("opening stream writer: %w", err)
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range ds.Stands {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, exportRow(ds.WellID, &ds.Stands[i])); err != nil {
			return fmt.Errorf("writing stand %d: %w", ds.Stands[i].ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func exportRow(wellID string, s *models.Stand) []any {
	return []any{
		wellID, s.ID, s.StandType, exportTime(s.StartTime), exportTime(s.EndTime),
		s.StartDepth, s.EndDepth, s.ROP, s.WOB, s.RPM, s.Torque, s.FlowRate,
		s.RotaryDuration * 3600, s.SlideDuration * 3600,
		s.ConnectionTime, s.PreConnectionTime, s.PostConnectionTime,
		s.PreConnectionInControl, s.PreConnectionOutControl, s.PostConnectionInControl, s.PostConnectionOutControl,
		s.DrillingInControl, s.DrillingOutControl,
		s.OpsLimitRopMaxCount, s.OpsLimitWobMaxCount, s.OpsLimitTorqueMaxCount, s.OpsLimitRpmMaxCount, s.OpsLimitDiffPMaxCount,
	}
}

// exportTime leaves untimed cells empty so they read back as absent.
func exportTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(exportTimeLayout)
}
