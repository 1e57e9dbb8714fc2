package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/polecart/ddqn/environment"
	ts "github.com/polecart/ddqn/timestep"
)

// Balance implements the Cartpole balancing task. The agent earns +1
// for every step on which the cart stays within its track bounds and
// the pole within its failure angle, and failureReward on the step
// that violates either. Episodes end on a violation (terminal state)
// or at the step limit (timeout).
type Balance struct {
	env.Starter
	stepLimiter   env.StepLimit
	failLimiter   *env.IntervalLimit
	failureReward float64
}

// NewBalance creates and returns a new Balance task. The episodeSteps
// parameter is the timeout cutoff and failureReward is the reward
// emitted on the failing step.
func NewBalance(s env.Starter, episodeSteps int,
	failureReward float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	failIntervals := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -FailAngle, Max: FailAngle},
	}
	failIndices := []int{0, 2}
	failLimiter := env.NewIntervalLimit(failIntervals, failIndices)

	return &Balance{s, stepLimiter, failLimiter, failureReward}
}

// NewDefaultStarter returns the starting-state distribution of the
// balancing task: every state feature drawn uniformly from
// [-StartBound, StartBound].
func NewDefaultStarter(seed uint64) env.Starter {
	bounds := make([]r1.Interval, ObservationSize)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	return env.NewUniformStarter(bounds, seed)
}

// End checks whether a TimeStep ends the episode, adjusting its
// StepType and end reason if so. Failure is checked before the step
// limit so that a failure on the limit step counts as terminal.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.failLimiter.End(t); end {
		return true
	}
	if end := b.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to nextState.
func (b *Balance) GetReward(_, _, nextState mat.Vector) float64 {
	if b.failed(nextState) {
		return b.failureReward
	}
	return 1.0
}

// AtGoal returns whether the pole is still balanced in the given state
func (b *Balance) AtGoal(state mat.Vector) bool {
	return !b.failed(state)
}

func (b *Balance) failed(state mat.Vector) bool {
	return math.Abs(state.AtVec(0)) > FailPosition ||
		math.Abs(state.AtVec(2)) > FailAngle
}

// Min returns the minimum possible reward
func (b *Balance) Min() float64 {
	return math.Min(b.failureReward, 1.0)
}

// Max returns the maximum possible reward
func (b *Balance) Max() float64 {
	return math.Max(b.failureReward, 1.0)
}

// RewardSpec returns the reward specification of the task
func (b *Balance) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{b.Min()})
	upperBound := mat.NewVecDense(1, []float64{b.Max()})

	return env.Spec{
		Shape:       shape,
		Type:        env.Reward,
		LowerBound:  lowerBound,
		UpperBound:  upperBound,
		Cardinality: env.Continuous,
	}
}
