package report

import (
	"fmt"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/internal/laminate"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Assessment is the evaluation of a single user-given sequence
type Assessment struct {
	Layup      string                    `json:"layup"`
	Plies      int                       `json:"plies"`
	Feasible   bool                      `json:"feasible"`
	Objective  string                    `json:"objective"`
	Score      float64                   `json:"score"`
	Evaluation laminate.EvaluationResult `json:"evaluation"`
	Violations []constraint.Violation    `json:"violations"`
}

// Assess evaluates seq against the search's problem
func Assess(s *anneal.Search, seq models.StackingSequence) (*Assessment, error) {
	c, err := s.Assess(seq)
	if err != nil {
		return nil, err
	}
	violations := s.Checker.Explain(seq)
	if c.Violations.Has(constraint.FirstPlyFailure) {
		violations = append(violations, constraint.Violation{
			Kind:   constraint.FirstPlyFailure,
			Detail: failureDetail(c.Evaluation),
		})
	}
	if violations == nil {
		violations = []constraint.Violation{}
	}
	return &Assessment{
		Layup:      seq.String(),
		Plies:      seq.Len(),
		Feasible:   c.Feasible(),
		Objective:  s.Objective.Name(),
		Score:      c.Score,
		Evaluation: c.Evaluation,
		Violations: violations,
	}, nil
}

func failureDetail(e laminate.EvaluationResult) string {
	return fmt.Sprintf("failure margin %.3f below 1 at ply %d (%s)", e.FailureMargin, e.CriticalPly, e.FailureMode)
}
