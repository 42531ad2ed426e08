package metrics

import (
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Series recorded by the annealer
const (
	MetricCurrentScore = "current_score"
	MetricBestScore    = "best_score"
	MetricTemperature  = "temperature"
	MetricPlyCount     = "ply_count"
)

// Counters recorded by the annealer
const (
	CounterIterations   = "iterations"
	CounterEvaluations  = "evaluations"
	CounterAccepted     = "accepted"
	CounterRejected     = "rejected"
	CounterImprovements = "improvements"
	CounterNoMove       = "no_move"

	infeasiblePrefix = "infeasible."
	movePrefix       = "move."
)

// InfeasibleCounter names the counter for one violation kind
func InfeasibleCounter(kind string) string {
	return infeasiblePrefix + kind
}

// MoveCounter names the counter for one mutation kind
func MoveCounter(kind string) string {
	return movePrefix + kind
}

// SearchStats is a snapshot of the annealer counters
type SearchStats struct {
	Iterations     int64            `json:"iterations"`
	Evaluations    int64            `json:"evaluations"`
	Accepted       int64            `json:"accepted"`
	Rejected       int64            `json:"rejected"`
	Improvements   int64            `json:"improvements"`
	Infeasible     map[string]int64 `json:"infeasible,omitempty"`
	Moves          map[string]int64 `json:"moves,omitempty"`
	AcceptanceRate float64          `json:"acceptance_rate"`
	// Series aggregates each sampled series of one annealer. Merged stats carry
	// none since percentiles of different runs do not combine.
	Series map[string]*models.Aggregation `json:"series,omitempty"`
}

// Stats builds a SearchStats snapshot from the collector counters
func Stats(c *Collector) SearchStats {
	counters := c.Counters()
	s := SearchStats{
		Iterations:   counters[CounterIterations],
		Evaluations:  counters[CounterEvaluations],
		Accepted:     counters[CounterAccepted],
		Rejected:     counters[CounterRejected],
		Improvements: counters[CounterImprovements],
		Infeasible:   make(map[string]int64),
		Moves:        make(map[string]int64),
	}
	for name, v := range counters {
		switch {
		case strings.HasPrefix(name, infeasiblePrefix):
			s.Infeasible[strings.TrimPrefix(name, infeasiblePrefix)] = v
		case strings.HasPrefix(name, movePrefix):
			s.Moves[strings.TrimPrefix(name, movePrefix)] = v
		}
	}
	if names := c.GetMetricNames(); len(names) > 0 {
		s.Series = make(map[string]*models.Aggregation, len(names))
		for _, name := range names {
			if agg := c.GetOrComputeAggregation(name); agg != nil {
				cp := *agg
				s.Series[name] = &cp
			}
		}
	}
	s.updateRate()
	return s
}

// Merge sums several snapshots, e.g. the instances of one batch
func Merge(stats ...SearchStats) SearchStats {
	total := SearchStats{
		Infeasible: make(map[string]int64),
		Moves:      make(map[string]int64),
	}
	for _, s := range stats {
		total.Iterations += s.Iterations
		total.Evaluations += s.Evaluations
		total.Accepted += s.Accepted
		total.Rejected += s.Rejected
		total.Improvements += s.Improvements
		for k, v := range s.Infeasible {
			total.Infeasible[k] += v
		}
		for k, v := range s.Moves {
			total.Moves[k] += v
		}
	}
	total.updateRate()
	return total
}

func (s *SearchStats) updateRate() {
	if decided := s.Accepted + s.Rejected; decided > 0 {
		s.AcceptanceRate = float64(s.Accepted) / float64(decided)
	}
}

// SortedKeys returns the keys of a counter map in sorted order
func SortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
