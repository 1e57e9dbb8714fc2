package timestep

import "gonum.org/v1/gonum/mat"

// Transition records a single (state, action, reward, next state, done)
// interaction step. A Transition is immutable once constructed: the
// state vectors are deep copies, so later mutation of the source
// TimeSteps cannot alias into a stored Transition.
//
// Done is true only when the episode reached a terminal state after
// this step. A timeout cutoff ends an episode without setting Done, so
// that bootstrapped value targets continue through artificial episode
// limits.
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	NextState mat.Vector
	Done      bool
}

// NewTransition packages the step from one TimeStep to the next under
// a given action into a Transition. The reward is the one emitted on
// arrival in nextStep.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	return Transition{
		State:     mat.VecDenseCopyOf(step.Observation),
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: mat.VecDenseCopyOf(nextStep.Observation),
		Done:      nextStep.Last() && nextStep.TerminatedNaturally(),
	}
}
