package anneal

import (
	"fmt"
	"math"
)

// Schedule provides the temperature for a given iteration.
// Temperature(0) is the initial temperature.
type Schedule interface {
	Temperature(iteration int) float64
	Name() string
}

// ScheduleType names a cooling schedule
type ScheduleType string

const (
	ScheduleGeometric ScheduleType = "geometric"
	ScheduleLinear    ScheduleType = "linear"
)

// GeometricSchedule multiplies the temperature by Rate every Interval iterations.
// It does not depend on the run length, so a longer run repeats the shorter run's prefix.
type GeometricSchedule struct {
	Initial  float64
	Rate     float64
	Interval int
}

func (g GeometricSchedule) Name() string {
	return string(ScheduleGeometric)
}

func (g GeometricSchedule) Temperature(iteration int) float64 {
	interval := g.Interval
	if interval <= 0 {
		interval = 1
	}
	steps := iteration / interval
	return g.Initial * math.Pow(g.Rate, float64(steps))
}

// LinearSchedule cools linearly from Initial to Final over Iterations
type LinearSchedule struct {
	Initial    float64
	Final      float64
	Iterations int
}

func (l LinearSchedule) Name() string {
	return string(ScheduleLinear)
}

func (l LinearSchedule) Temperature(iteration int) float64 {
	if l.Iterations <= 0 || iteration >= l.Iterations {
		return l.Final
	}
	frac := float64(iteration) / float64(l.Iterations)
	return l.Initial + frac*(l.Final-l.Initial)
}

// ScheduleParams parameterizes NewSchedule
type ScheduleParams struct {
	Initial       float64
	Rate          float64
	Interval      int
	Final         float64
	MaxIterations int
}

// NewSchedule creates a cooling schedule from a type string
func NewSchedule(name string, p ScheduleParams) (Schedule, error) {
	if !(p.Initial > 0) {
		return nil, fmt.Errorf("initial temperature must be positive, got %g", p.Initial)
	}
	switch ScheduleType(name) {
	case ScheduleGeometric:
		if !(p.Rate > 0 && p.Rate < 1) {
			return nil, fmt.Errorf("cooling rate must be in (0, 1), got %g", p.Rate)
		}
		return GeometricSchedule{Initial: p.Initial, Rate: p.Rate, Interval: p.Interval}, nil
	case ScheduleLinear:
		if p.MaxIterations <= 0 {
			return nil, fmt.Errorf("linear schedule needs max iterations, got %d", p.MaxIterations)
		}
		return LinearSchedule{Initial: p.Initial, Final: p.Final, Iterations: p.MaxIterations}, nil
	default:
		return nil, &UnknownScheduleError{Schedule: name}
	}
}
