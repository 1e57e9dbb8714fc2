// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be: the first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended. A terminal state is a natural
// episode ending, such as the pole falling past its failure angle. A
// timeout is an artificial cutoff imposed by a step limit.
type EndType int

const (
	TermNil EndType = iota // episode has not ended
	TermTerminal
	TermTimeout
)

func (e EndType) String() string {
	switch e {
	case TermTerminal:
		return "Terminal"
	case TermTimeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
	End         EndType
}

// New creates and returns a new TimeStep
func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n, TermNil}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd records the reason an episode ended
func (t *TimeStep) SetEnd(e EndType) {
	t.End = e
}

// TerminatedNaturally returns whether the TimeStep ended its episode by
// reaching a terminal state, as opposed to hitting a step limit.
func (t *TimeStep) TerminatedNaturally() bool {
	return t.End == TermTerminal
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
