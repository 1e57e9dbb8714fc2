package environment

import (
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/polecart/ddqn/timestep"
)

// StepLimit implements the Ender interface to cut episodes off at a
// fixed timestep limit. Episodes ended this way are timeouts, not
// terminal states.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether the current episode should be cut off,
// modifying the TimeStep accordingly.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		t.SetEnd(timestep.TermTimeout)
		return true
	}
	return false
}

// IntervalLimit implements the Ender interface to end episodes
// whenever a watched feature of the state vector leaves its legal
// interval. Episodes ended this way reached a terminal state.
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit watching
// the state features at obsIndices against the corresponding limits.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic("limits should have same length as observation indices")
	}

	return &IntervalLimit{limits, obsIndices}
}

// End determines whether the current episode reached a terminal state,
// modifying the TimeStep accordingly.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for index := range i.indices {
		featureIndex := i.indices[index]
		interval := i.intervals[index]

		if t.Observation.AtVec(featureIndex) > interval.Max ||
			t.Observation.AtVec(featureIndex) < interval.Min {
			t.StepType = timestep.Last
			t.SetEnd(timestep.TermTerminal)
			return true
		}
	}
	return false
}
