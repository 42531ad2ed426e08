package layupd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// Run is the externally visible state of an optimization run
type Run struct {
	ID              string           `json:"id"`
	Status          models.RunStatus `json:"status"`
	CreatedAtUnixMs int64            `json:"created_at_unix_ms"`
	StartedAtUnixMs int64            `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64            `json:"ended_at_unix_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
	Progress        Progress         `json:"progress"`
}

// Progress summarizes a running batch
type Progress struct {
	Instances       int     `json:"instances"`
	InstancesDone   int     `json:"instances_done"`
	Iterations      int     `json:"iterations"`
	IterationBudget int     `json:"iteration_budget"`
	HasBest         bool    `json:"has_best"`
	BestScore       float64 `json:"best_score,omitempty"`
	BestLayup       string  `json:"best_layup,omitempty"`
}

// RunInput is what a client submits to create a run
type RunInput struct {
	ProblemYAML    string `json:"problem_yaml"`
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
	// OutputDir, when set, receives the report files of the finished run. It is
	// relative to the store's output root.
	OutputDir string `json:"output_dir,omitempty"`
}

type RunRecord struct {
	Run     Run
	Input   RunInput
	Problem *config.Problem
	Report  *report.Report
	// OutputPath is Input.OutputDir resolved under the output root
	OutputPath string
}

type RunStore struct {
	mu         sync.RWMutex
	runs       map[string]*RunRecord
	outputRoot string
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
	}
}

// WithOutputRoot sets the directory that run output_dir values are resolved
// against. Without one, runs cannot request report files.
func (s *RunStore) WithOutputRoot(root string) *RunStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputRoot = root
	return s
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create parses and validates the problem and registers a pending run. An empty
// runID gets a generated one.
func (s *RunStore) Create(runID string, input RunInput) (*RunRecord, error) {
	problem, err := config.ParseProblemYAMLString(input.ProblemYAML)
	if err != nil {
		return nil, err
	}
	if input.CallbackURL != "" {
		if err := validateCallbackURL(input.CallbackURL); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var outputPath string
	if input.OutputDir != "" {
		if outputPath, err = resolveOutputDir(s.outputRoot, input.OutputDir); err != nil {
			return nil, err
		}
	}

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	rec := &RunRecord{
		Run: Run{
			ID:              runID,
			Status:          models.RunStatusPending,
			CreatedAtUnixMs: nowUnixMs(),
			Progress: Progress{
				Instances:       problem.Runs,
				IterationBudget: problem.Runs * problem.Annealing.MaxIterations,
			},
		},
		Input:      input,
		Problem:    problem,
		OutputPath: outputPath,
	}
	s.runs[runID] = rec
	return rec.snapshot(), nil
}

// Get returns a copy of the record
func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.snapshot(), true
}

// List returns up to limit runs, newest first. A non-empty status keeps only
// runs in that status.
func (s *RunStore) List(limit int, status models.RunStatus) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		if status != "" && rec.Run.Status != status {
			continue
		}
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Run.CreatedAtUnixMs != out[j].Run.CreatedAtUnixMs {
			return out[i].Run.CreatedAtUnixMs > out[j].Run.CreatedAtUnixMs
		}
		return out[i].Run.ID < out[j].Run.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SetStatus moves a run to status. Terminal runs keep their status.
func (s *RunStore) SetStatus(runID string, status models.RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status.IsTerminal() {
		return rec.snapshot(), nil
	}

	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}

	switch status {
	case models.RunStatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case models.RunStatusCompleted, models.RunStatusFailed, models.RunStatusCancelled:
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}

	return rec.snapshot(), nil
}

func (s *RunStore) SetResult(runID string, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Report = r
	return nil
}

func (s *RunStore) SetProgress(runID string, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Run.Progress = p
	return nil
}

func (r *RunRecord) snapshot() *RunRecord {
	cp := *r
	return &cp
}
