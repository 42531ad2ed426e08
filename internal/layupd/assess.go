package layupd

import (
	"errors"
	"strings"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

var ErrLayupMissing = errors.New("layup is required")

// EvaluateRequest asks for the assessment of one layup under a problem
type EvaluateRequest struct {
	ProblemYAML string `json:"problem_yaml"`
	Layup       string `json:"layup"` // e.g. [45/-45/0/90]s
}

// Evaluate assesses a layup without creating a run. Plies take the problem's
// ply thickness and material.
func Evaluate(req EvaluateRequest) (*report.Assessment, error) {
	if strings.TrimSpace(req.Layup) == "" {
		return nil, ErrLayupMissing
	}
	p, err := config.ParseProblemYAMLString(req.ProblemYAML)
	if err != nil {
		return nil, err
	}
	s, err := anneal.NewSearch(p, logger.With("component", "layupd"))
	if err != nil {
		return nil, err
	}
	seq, err := models.ParseLayup(req.Layup, p.Ply.Thickness, p.Ply.Material)
	if err != nil {
		return nil, err
	}
	return report.Assess(s, seq)
}
