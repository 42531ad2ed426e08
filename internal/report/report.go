// Package report renders optimization results as JSON, an XLSX workbook and an
// HTML trace chart.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/metrics"
)

// File names written by WriteFiles
const (
	JSONFile     = "result.json"
	WorkbookFile = "result.xlsx"
	ChartFile    = "trace.html"
)

// Report is the serializable outcome of one optimization
type Report struct {
	RunID       string                  `json:"run_id,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Best        *anneal.Result          `json:"best,omitempty"`
	BestIndex   int                     `json:"best_index"`
	Instances   []anneal.InstanceResult `json:"instances"`
	Stats       metrics.SearchStats     `json:"stats"`
	Error       string                  `json:"error,omitempty"`
}

// New builds a report from a batch. err is the batch error, if any.
func New(runID string, batch *anneal.BatchResult, err error) *Report {
	r := &Report{RunID: runID, GeneratedAt: time.Now().UTC(), BestIndex: -1}
	if batch != nil {
		r.Best = batch.Best
		r.BestIndex = batch.BestIndex
		r.Instances = batch.Instances
		r.Stats = batch.Stats
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFiles writes the JSON report, the workbook and, when a best design exists,
// the trace chart into dir. It returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, *Report) error
	}{
		{JSONFile, func(w io.Writer, r *Report) error { return WriteJSON(w, r) }},
		{WorkbookFile, WriteWorkbook},
	}
	if r.Best != nil && len(r.Best.Trace) > 0 {
		writers = append(writers, struct {
			name  string
			write func(io.Writer, *Report) error
		}{ChartFile, WriteTraceChart})
	}

	var paths []string
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, r, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, r *Report, write func(io.Writer, *Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
