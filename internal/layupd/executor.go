package layupd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
	ErrRunExists    = errors.New("run already exists")
)

// RunExecutor manages asynchronous run execution and per-run cancellation.
type RunExecutor struct {
	store    *RunStore
	notifier *Notifier

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	done    map[string]chan struct{}
}

func NewRunExecutor(store *RunStore) *RunExecutor {
	return &RunExecutor{
		store:    store,
		notifier: NewNotifier(),
		cancels:  make(map[string]context.CancelFunc),
		done:     make(map[string]chan struct{}),
	}
}

// Start begins executing a run asynchronously.
// Returns the updated run state (running) or an error.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	switch {
	case rec.Run.Status == models.RunStatusRunning:
		return rec, nil
	case rec.Run.Status.IsTerminal():
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := e.store.SetStatus(runID, models.RunStatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	e.done[runID] = done
	e.mu.Unlock()

	go e.runOptimization(ctx, runID, done)
	return updated, nil
}

// Stop requests cancellation and marks the run cancelled. The running batch
// still stores the best design found before it noticed the cancellation.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()

	if ok {
		cancel()
	}

	return e.store.SetStatus(runID, models.RunStatusCancelled, "")
}

// Wait blocks until the run's goroutine has finished or ctx is done and returns
// the latest record. Runs that were never started return immediately.
func (e *RunExecutor) Wait(ctx context.Context, runID string) (*RunRecord, error) {
	e.mu.Lock()
	done, running := e.done[runID]
	e.mu.Unlock()

	if running {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return rec, nil
}

// StopAll cancels every running run
func (e *RunExecutor) StopAll() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.Stop(id); err != nil {
			logger.Warn("failed to stop run", "run_id", id, "error", err)
		}
	}
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	delete(e.done, runID)
	e.mu.Unlock()
}

func (e *RunExecutor) runOptimization(ctx context.Context, runID string, done chan struct{}) {
	defer close(done)
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}
	log := logger.With("component", "layupd", "run_id", runID)

	search, err := anneal.NewSearch(rec.Problem, log)
	if err != nil {
		e.fail(log, runID, fmt.Sprintf("invalid problem: %v", err))
		e.notify(runID)
		return
	}

	tracker := newProgressTracker(rec.Run.Progress)
	search.Observer = func(index int, st anneal.State) {
		if err := e.store.SetProgress(runID, tracker.observe(index, st)); err != nil {
			log.Warn("failed to set progress", "error", err)
		}
	}
	search.Batch.OnInstanceDone = func(ir anneal.InstanceResult) {
		if err := e.store.SetProgress(runID, tracker.instanceDone(ir)); err != nil {
			log.Warn("failed to set progress", "error", err)
		}
	}

	batch, runErr := search.Run(ctx)
	r := report.New(runID, batch, runErr)
	if err := e.store.SetResult(runID, r); err != nil {
		log.Error("failed to set result", "error", err)
	}
	if dir := rec.OutputPath; dir != "" {
		paths, err := report.WriteFiles(dir, r)
		if err != nil {
			log.Error("failed to write report", "dir", dir, "error", err)
		} else {
			log.Info("report written", "files", paths)
		}
	}

	switch {
	case ctx.Err() != nil:
		if _, err := e.store.SetStatus(runID, models.RunStatusCancelled, ""); err != nil {
			log.Error("failed to set cancelled status", "error", err)
		}
		log.Info("run cancelled", "has_best", batch != nil && batch.Best != nil)
	case runErr != nil:
		e.fail(log, runID, runErr.Error())
	default:
		if _, err := e.store.SetStatus(runID, models.RunStatusCompleted, ""); err != nil {
			log.Error("failed to set completed status", "error", err)
		} else {
			log.Info("run completed", "layup", batch.Best.Layup, "score", batch.Best.Score)
		}
	}
	e.notify(runID)
}

func (e *RunExecutor) fail(log *slog.Logger, runID, msg string) {
	log.Error("run failed", "error", msg)
	if _, err := e.store.SetStatus(runID, models.RunStatusFailed, msg); err != nil {
		log.Error("failed to set failed status", "error", err)
	}
}

func (e *RunExecutor) notify(runID string) {
	rec, ok := e.store.Get(runID)
	if !ok || rec.Input.CallbackURL == "" {
		return
	}
	e.notifier.Notify(rec.Input.CallbackURL, rec.Input.CallbackSecret, rec)
}

// progressTracker folds the concurrent observations of a batch into one Progress
type progressTracker struct {
	mu         sync.Mutex
	iterations []int
	progress   Progress
}

func newProgressTracker(initial Progress) *progressTracker {
	return &progressTracker{
		iterations: make([]int, max(initial.Instances, 0)),
		progress:   initial,
	}
}

func (t *progressTracker) observe(index int, st anneal.State) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setIterations(index, st.Iteration)
	if st.Best != nil {
		t.offer(st.Best.Score, st.Best.Sequence.String())
	}
	return t.progress
}

func (t *progressTracker) instanceDone(ir anneal.InstanceResult) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.InstancesDone++
	if ir.Result != nil {
		t.setIterations(ir.Index, ir.Result.Iterations)
		t.offer(ir.Result.Score, ir.Result.Layup)
	}
	return t.progress
}

func (t *progressTracker) setIterations(index, n int) {
	if index < 0 || index >= len(t.iterations) {
		return
	}
	t.iterations[index] = n
	total := 0
	for _, it := range t.iterations {
		total += it
	}
	t.progress.Iterations = total
}

func (t *progressTracker) offer(score float64, layup string) {
	if !t.progress.HasBest || score > t.progress.BestScore {
		t.progress.HasBest = true
		t.progress.BestScore = score
		t.progress.BestLayup = layup
	}
}
