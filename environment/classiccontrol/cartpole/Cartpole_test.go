package cartpole

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/polecart/ddqn/environment"
	ts "github.com/polecart/ddqn/timestep"
)

// fixedStarter always starts episodes from the same state
type fixedStarter struct {
	state []float64
}

func (f fixedStarter) Start() mat.Vector {
	return mat.NewVecDense(len(f.state), f.state)
}

func newTestEnv(s env.Starter, episodeSteps int) *Cartpole {
	task := NewBalance(s, episodeSteps, -10.0)
	environment, _ := New(task, 1.0)
	return environment
}

func TestStartWithinBounds(t *testing.T) {
	environment := newTestEnv(NewDefaultStarter(13), 500)

	for episode := 0; episode < 100; episode++ {
		step := environment.Reset()

		if !step.First() {
			t.Fatal("Reset should return a First timestep")
		}
		if step.Number != 0 {
			t.Fatalf("Reset step number\n\twant(%v)\n\thave(%v)", 0,
				step.Number)
		}

		for i := 0; i < ObservationSize; i++ {
			v := step.Observation.AtVec(i)
			if v < -StartBound || v > StartBound {
				t.Errorf("start feature %v out of bounds: %v", i, v)
			}
		}
	}
}

func TestStepForceDirection(t *testing.T) {
	rest := []float64{0, 0, 0, 0}

	environment := newTestEnv(fixedStarter{rest}, 500)
	environment.Reset()
	step, _, err := environment.Step(mat.NewVecDense(1, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	if step.Observation.AtVec(1) <= 0 {
		t.Error("pushing right from rest should give positive velocity")
	}

	environment.Reset()
	step, _, err = environment.Step(mat.NewVecDense(1, []float64{0}))
	if err != nil {
		t.Fatal(err)
	}
	if step.Observation.AtVec(1) >= 0 {
		t.Error("pushing left from rest should give negative velocity")
	}
}

func TestStepIllegalAction(t *testing.T) {
	environment := newTestEnv(NewDefaultStarter(13), 500)
	environment.Reset()

	if _, _, err := environment.Step(mat.NewVecDense(1,
		[]float64{2})); err == nil {
		t.Error("expected error for out-of-range action")
	}
	if _, _, err := environment.Step(mat.NewVecDense(1,
		[]float64{-1})); err == nil {
		t.Error("expected error for negative action")
	}
}

func TestFailureIsTerminal(t *testing.T) {
	// Start just inside the position bound moving quickly outward, so
	// the first step fails
	start := []float64{FailPosition - 0.001, 100.0, 0, 0}

	environment := newTestEnv(fixedStarter{start}, 500)
	environment.Reset()

	step, last, err := environment.Step(mat.NewVecDense(1, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}

	if !last || !step.Last() {
		t.Fatal("leaving the position bound should end the episode")
	}
	if step.End != ts.TermTerminal {
		t.Errorf("wrong end type\n\twant(%v)\n\thave(%v)", ts.TermTerminal,
			step.End)
	}
	if step.Reward != -10.0 {
		t.Errorf("wrong failure reward\n\twant(%v)\n\thave(%v)", -10.0,
			step.Reward)
	}
}

func TestStepLimitIsTimeout(t *testing.T) {
	const episodeSteps = 10

	// Balanced start: the pole stays up over such a short horizon
	environment := newTestEnv(fixedStarter{[]float64{0, 0, 0, 0}},
		episodeSteps)
	environment.Reset()

	var step ts.TimeStep
	var last bool
	var err error
	for i := 0; i < episodeSteps; i++ {
		action := mat.NewVecDense(1, []float64{float64(i % 2)})
		step, last, err = environment.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		if step.Reward != 1.0 {
			t.Errorf("wrong reward at step %v\n\twant(%v)\n\thave(%v)",
				i+1, 1.0, step.Reward)
		}
	}

	if !last {
		t.Fatal("episode should end at the step limit")
	}
	if step.End != ts.TermTimeout {
		t.Errorf("wrong end type\n\twant(%v)\n\thave(%v)", ts.TermTimeout,
			step.End)
	}
	if step.TerminatedNaturally() {
		t.Error("a timeout cutoff should not count as a terminal state")
	}
}

func TestActionSpec(t *testing.T) {
	environment := newTestEnv(NewDefaultStarter(13), 500)

	spec := environment.ActionSpec()
	if spec.Cardinality != env.Discrete {
		t.Error("actions should be discrete")
	}
	if spec.LowerBound.AtVec(0) != 0.0 {
		t.Errorf("wrong action lower bound\n\twant(%v)\n\thave(%v)", 0.0,
			spec.LowerBound.AtVec(0))
	}
	if spec.UpperBound.AtVec(0) != 1.0 {
		t.Errorf("wrong action upper bound\n\twant(%v)\n\thave(%v)", 1.0,
			spec.UpperBound.AtVec(0))
	}
}

func TestGetRewardAtGoal(t *testing.T) {
	task := NewBalance(NewDefaultStarter(13), 500, -10.0)

	upright := mat.NewVecDense(4, []float64{0, 0, 0, 0})
	fallen := mat.NewVecDense(4, []float64{0, 0, FailAngle + 0.01, 0})

	if r := task.GetReward(upright, nil, upright); r != 1.0 {
		t.Errorf("wrong balanced reward\n\twant(%v)\n\thave(%v)", 1.0, r)
	}
	if r := task.GetReward(upright, nil, fallen); r != -10.0 {
		t.Errorf("wrong failure reward\n\twant(%v)\n\thave(%v)", -10.0, r)
	}

	if !task.AtGoal(upright) {
		t.Error("upright state should be at goal")
	}
	if task.AtGoal(fallen) {
		t.Error("fallen state should not be at goal")
	}
}

func TestObservationSpecShape(t *testing.T) {
	environment := newTestEnv(NewDefaultStarter(13), 500)

	spec := environment.ObservationSpec()
	if spec.Shape.Len() != ObservationSize {
		t.Errorf("wrong observation size\n\twant(%v)\n\thave(%v)",
			ObservationSize, spec.Shape.Len())
	}
	if !math.IsInf(spec.UpperBound.AtVec(1), 1) {
		t.Error("velocity should be unbounded above")
	}
}
