package anneal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFeasibleSolution is returned when a search never visits a feasible design
	ErrNoFeasibleSolution = errors.New("no feasible solution")
	// ErrInfeasibleSeed is returned when a supplied seed sequence is not feasible
	ErrInfeasibleSeed = errors.New("seed sequence is infeasible")
)

// NoFeasibleSolutionError describes a search (or batch of searches) that ended without a feasible best
type NoFeasibleSolutionError struct {
	Instances  int
	Iterations int
	Reason     string
}

func (e *NoFeasibleSolutionError) Error() string {
	msg := fmt.Sprintf("no feasible solution after %d iterations", e.Iterations)
	if e.Instances > 1 {
		msg = fmt.Sprintf("no feasible solution in %d instances (%d iterations)", e.Instances, e.Iterations)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap lets errors.Is match ErrNoFeasibleSolution
func (e *NoFeasibleSolutionError) Unwrap() error {
	return ErrNoFeasibleSolution
}

// UnknownObjectiveError indicates an unknown objective type
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective type: " + e.ObjectiveType
}

// UnknownScheduleError indicates an unknown cooling schedule
type UnknownScheduleError struct {
	Schedule string
}

func (e *UnknownScheduleError) Error() string {
	return "unknown cooling schedule: " + e.Schedule
}
