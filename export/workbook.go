// export/workbook.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package export

import (
	"fmt"
	"io"

	"github.com/fieldlength/takeoff/takeoff"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
)

const (
	SummarySheet       = "Summary"
	TraceSheet         = "Trace"
	BalancedFieldSheet = "Balanced field"
	CurveSheet         = "Curves"
)

var traceHeader = []string{"time (s)", "phase", "distance (m)", "speed (m/s)", "gamma (deg)", "altitude (m)",
	"alpha (deg)", "theta (deg)", "CL", "CD", "lift (N)", "drag (N)", "thrust (N)", "friction (N)",
	"acceleration (m/s2)", "load factor", "rate of climb (m/s)"}

// WriteWorkbook writes the summary, the all-engines trace and, if it was
// computed, the balanced field samples and fitted curves as an XLSX
// workbook.
func WriteWorkbook(w io.Writer, sum *takeoff.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sheets := []string{SummarySheet}
	if sum.Run != nil {
		sheets = append(sheets, TraceSheet)
	}
	if sum.BalancedField != nil {
		sheets = append(sheets, BalancedFieldSheet, CurveSheet)
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := writeSummarySheet(f, sum, bold); err != nil {
		return fmt.Errorf("%s: %w", SummarySheet, err)
	}
	if sum.Run != nil {
		if err := writeTraceSheet(f, sum.Run.Trace, bold); err != nil {
			return fmt.Errorf("%s: %w", TraceSheet, err)
		}
	}
	if bf := sum.BalancedField; bf != nil {
		if err := writeBalancedFieldSheets(f, bf, bold); err != nil {
			return fmt.Errorf("%s: %w", BalancedFieldSheet, err)
		}
	}

	idx, err := f.GetSheetIndex(SummarySheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	_, err = f.WriteTo(w)
	return err
}

func writeSummarySheet(f *excelize.File, sum *takeoff.Summary, bold int) error {
	rows := [][]any{
		{"aircraft", sum.Name, ""},
		{"ground roll", sum.GroundRoll, "m"},
		{"rotation", sum.Rotation, "m"},
		{"airborne", sum.Airborne, "m"},
		{"AEO distance", sum.AEO, "m"},
		{"FAR-25 distance", sum.FAR25, "m"},
		{"duration", sum.Duration, "s"},
		{"Vstall", sum.VStall, "m/s"},
		{"Vrot", sum.VRot, "m/s"},
		{"VLO", sum.VLO, "m/s"},
		{"V2", sum.V2, "m/s"},
		{"Vrot/Vstall", sum.VRotRatio, ""},
		{"VLO/Vstall", sum.VLORatio, ""},
		{"V2/Vstall", sum.V2Ratio, ""},
		{"alpha reduction", sum.AlphaReduction, "deg/s"},
		{"bounded", sum.Bounded, ""},
	}
	if sum.Run != nil {
		tr := sum.Run.Trace
		rows = append(rows,
			[]any{"max load factor", floats.Max(tr.Column(func(s takeoff.Sample) float64 { return s.LoadFactor })), ""},
			[]any{"max pitch attitude", floats.Max(tr.Column(func(s takeoff.Sample) float64 { return s.Theta })), "deg"},
			[]any{"integration steps", sum.Run.Stats.Steps, ""})
	}
	if sum.HasBFL {
		rows = append(rows,
			[]any{"V1", sum.V1, "m/s"},
			[]any{"balanced field length", sum.BFL, "m"})
	} else if sum.BFLError != "" {
		rows = append(rows, []any{"no balanced field length", sum.BFLError, ""})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(SummarySheet, "A", bold); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 24)
}

func writeHeader(f *excelize.File, sheet string, header []string, bold int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeTraceSheet(f *excelize.File, tr takeoff.Trace, bold int) error {
	if err := writeHeader(f, TraceSheet, traceHeader, bold); err != nil {
		return err
	}
	for i, s := range tr {
		row := []any{s.Time, s.Phase.String(), s.State[takeoff.Distance], s.State[takeoff.Speed],
			s.State[takeoff.Gamma], s.State[takeoff.Altitude], s.Alpha, s.Theta, s.CL, s.CD, s.Lift, s.Drag,
			s.Thrust, s.Friction, s.Acceleration, s.LoadFactor, s.RateOfClimb}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TraceSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeBalancedFieldSheets(f *excelize.File, bf *takeoff.BalancedField, bold int) error {
	header := []string{"failure speed (m/s)", "continued (m)", "aborted (m)", "alpha reduction (deg/s)"}
	if err := writeHeader(f, BalancedFieldSheet, header, bold); err != nil {
		return err
	}
	for i, s := range bf.Samples {
		row := []any{s.FailureSpeed, s.Continued, s.Aborted, s.AlphaReduction}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(BalancedFieldSheet, cell, &row); err != nil {
			return err
		}
	}
	n := len(bf.Samples) + 3
	for i, row := range [][]any{
		{"V1", bf.V1, "m/s"},
		{"length", bf.Length, "m"},
		{"monotone", bf.Monotone, ""},
		{"discarded", len(bf.Discarded), ""},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, n+i)
		if err := f.SetSheetRow(BalancedFieldSheet, cell, &row); err != nil {
			return err
		}
	}

	header = []string{"failure speed (m/s)", "continued (m)", "aborted (m)"}
	if err := writeHeader(f, CurveSheet, header, bold); err != nil {
		return err
	}
	for i, p := range bf.Curve {
		row := []any{p.FailureSpeed, p.Continued, p.Aborted}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(CurveSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
