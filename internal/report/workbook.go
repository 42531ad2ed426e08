package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/GoSim-25-26J-441/layup-core/internal/metrics"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Sheet names of the workbook
const (
	SheetSummary   = "Summary"
	SheetLayup     = "Layup"
	SheetTrace     = "Trace"
	SheetInstances = "Instances"
)

// WriteWorkbook writes the report as an XLSX workbook with a summary, the ply
// table of the best design, its search trace and one row per instance.
func WriteWorkbook(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetLayup, SheetTrace, SheetInstances} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	steps := []func(*excelize.File, *Report, int) error{
		writeSummary, writeLayup, writeTrace, writeInstances,
	}
	for _, step := range steps {
		if err := step(f, r, header); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// setRows writes rows starting at A1 and styles the first row as a header
func setRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func writeSummary(f *excelize.File, r *Report, header int) error {
	rows := [][]any{{"Field", "Value"}}
	if r.RunID != "" {
		rows = append(rows, []any{"Run ID", r.RunID})
	}
	if b := r.Best; b != nil {
		e := b.Evaluation
		rows = append(rows,
			[]any{"Layup", b.Layup},
			[]any{"Ply count", b.Sequence.Len()},
			[]any{"Materials", strings.Join(b.Sequence.MaterialIDs(), ", ")},
			[]any{"Objective", b.Objective},
			[]any{"Score", b.Score},
			[]any{"Bending stiffness D11 (N·m)", e.BendingStiffness},
			[]any{"Effective stiffness 1/d11 (N·m)", e.EffectiveStiffness},
			[]any{"Areal weight (kg/m²)", e.ArealWeight},
			[]any{"Thickness (mm)", e.Thickness * 1e3},
			[]any{"Failure margin", e.FailureMargin},
			[]any{"Critical ply", e.CriticalPly},
			[]any{"Failure mode", e.FailureMode},
			[]any{"Best instance", r.BestIndex},
			[]any{"Seed", fmt.Sprint(b.Seed)},
			[]any{"Iterations", b.Iterations},
			[]any{"Termination", string(b.Reason)},
		)
		if e.Deflection > 0 {
			rows = append(rows, []any{"Deflection (mm)", e.Deflection * 1e3})
		}
	}
	if r.Error != "" {
		rows = append(rows, []any{"Error", r.Error})
	}
	s := r.Stats
	rows = append(rows,
		[]any{"Evaluations", s.Evaluations},
		[]any{"Accepted", s.Accepted},
		[]any{"Rejected", s.Rejected},
		[]any{"Improvements", s.Improvements},
		[]any{"Acceptance rate", s.AcceptanceRate},
	)
	for _, kind := range metrics.SortedKeys(s.Infeasible) {
		rows = append(rows, []any{"Infeasible: " + kind, s.Infeasible[kind]})
	}
	for _, kind := range metrics.SortedKeys(s.Moves) {
		rows = append(rows, []any{"Moves: " + kind, s.Moves[kind]})
	}
	if b := r.Best; b != nil {
		for _, name := range sortedSeries(b.Stats.Series) {
			agg := b.Stats.Series[name]
			rows = append(rows,
				[]any{"Series " + name + ": min", agg.Min},
				[]any{"Series " + name + ": mean", agg.Mean},
				[]any{"Series " + name + ": p95", agg.P95},
				[]any{"Series " + name + ": max", agg.Max},
			)
		}
	}
	if err := setRows(f, SheetSummary, rows, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 34)
}

func sortedSeries(series map[string]*models.Aggregation) []string {
	names := make([]string, 0, len(series))
	for name, agg := range series {
		if agg != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func writeLayup(f *excelize.File, r *Report, header int) error {
	rows := [][]any{{"Ply", "Orientation (deg)", "Thickness (mm)", "Material", "Strength ratio"}}
	if b := r.Best; b != nil {
		margins := b.Evaluation.PlyMargins
		for i, p := range b.Sequence.Plies() {
			row := []any{i + 1, int(p.Orientation), p.Thickness * 1e3, p.MaterialID}
			if i < len(margins) {
				row = append(row, margins[i])
			}
			rows = append(rows, row)
		}
	}
	return setRows(f, SheetLayup, rows, header)
}

func writeTrace(f *excelize.File, r *Report, header int) error {
	rows := [][]any{{"Iteration", "Temperature", "Current score", "Best score", "Ply count"}}
	if b := r.Best; b != nil {
		for _, p := range b.Trace {
			row := []any{p.Iteration, p.Temperature, p.CurrentScore, nil, p.PlyCount}
			if p.HasBest {
				row[3] = p.BestScore
			}
			rows = append(rows, row)
		}
	}
	return setRows(f, SheetTrace, rows, header)
}

func writeInstances(f *excelize.File, r *Report, header int) error {
	rows := [][]any{{"Instance", "Seed", "Layup", "Score", "Failure margin", "Iterations", "Termination", "Error"}}
	for _, inst := range r.Instances {
		row := []any{inst.Index, fmt.Sprint(inst.Seed), "", nil, nil, inst.Stats.Iterations, "", inst.Error}
		if res := inst.Result; res != nil {
			row[2] = res.Layup
			row[3] = res.Score
			row[4] = res.Evaluation.FailureMargin
			row[6] = string(res.Reason)
		}
		rows = append(rows, row)
	}
	return setRows(f, SheetInstances, rows, header)
}
