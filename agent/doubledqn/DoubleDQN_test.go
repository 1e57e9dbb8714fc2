package doubledqn

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/polecart/ddqn/environment"
	"github.com/polecart/ddqn/environment/classiccontrol/cartpole"
	ts "github.com/polecart/ddqn/timestep"
)

func newTestEnv() env.Environment {
	task := cartpole.NewBalance(cartpole.NewDefaultStarter(13), 500, -10.0)
	environment, _ := cartpole.New(task, 1.0)
	return environment
}

func newTestAgent(t *testing.T, config Config, seed int64) *DoubleDQN {
	t.Helper()

	agent, err := New(newTestEnv(), config, seed)
	if err != nil {
		t.Fatal(err)
	}
	return agent
}

// smallConfig returns a configuration whose replay buffer fills
// quickly, so learning starts after a handful of transitions
func smallConfig() Config {
	config := DefaultConfig()
	config.ReplayCapacity = 5
	config.BatchSize = 3
	return config
}

// fillReplay records n transitions from environment interaction
func fillReplay(t *testing.T, agent *DoubleDQN, n int) {
	t.Helper()

	environment := newTestEnv()
	step := environment.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		if step.Last() {
			step = environment.Reset()
			if err := agent.ObserveFirst(step); err != nil {
				t.Fatal(err)
			}
		}

		action := agent.SelectAction(step)
		nextStep, _, err := environment.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		if err := agent.Observe(action, nextStep); err != nil {
			t.Fatal(err)
		}
		step = nextStep
	}
}

func TestStepDefersWithoutExperience(t *testing.T) {
	agent := newTestAgent(t, smallConfig(), 1)

	// No experience at all
	if err := agent.Step(); err != nil {
		t.Errorf("learning with an empty buffer should be a no-op, got %v",
			err)
	}
	if agent.Epsilon() != 1.0 {
		t.Error("epsilon should not decay on a deferred learning call")
	}

	// Fewer transitions than one batch
	fillReplay(t, agent, 2)
	if err := agent.Step(); err != nil {
		t.Errorf("learning with insufficient experience should be a "+
			"no-op, got %v", err)
	}
	if agent.Epsilon() != 1.0 {
		t.Error("epsilon should not decay on a deferred learning call")
	}
}

func TestEpsilonDecay(t *testing.T) {
	config := smallConfig()
	agent := newTestAgent(t, config, 1)
	fillReplay(t, agent, config.BatchSize)

	const learnCalls = 20
	for i := 0; i < learnCalls; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	want := config.Epsilon *
		math.Pow(config.EpsilonDecay, float64(learnCalls))
	if want < config.EpsilonMin {
		want = config.EpsilonMin
	}
	if got := agent.Epsilon(); math.Abs(got-want) > 1e-12 {
		t.Errorf("wrong epsilon after %v learning calls\n\twant(%v)"+
			"\n\thave(%v)", learnCalls, want, got)
	}
}

func TestEpsilonNeverBelowMinimum(t *testing.T) {
	config := smallConfig()
	config.Epsilon = 0.02
	config.EpsilonMin = 0.01
	agent := newTestAgent(t, config, 1)
	fillReplay(t, agent, config.BatchSize)

	for i := 0; i < 500; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if got := agent.Epsilon(); got != config.EpsilonMin {
		t.Errorf("epsilon decayed past its floor\n\twant(%v)\n\thave(%v)",
			config.EpsilonMin, got)
	}
}

func TestRegressionTargetTerminal(t *testing.T) {
	agent := newTestAgent(t, DefaultConfig(), 1)

	transition := ts.Transition{
		State:     mat.NewVecDense(4, []float64{0.01, 0.0, 0.02, 0.0}),
		Action:    1,
		Reward:    -10.0,
		NextState: mat.NewVecDense(4, []float64{2.5, 1.0, 0.02, 0.0}),
		Done:      true,
	}

	target, err := agent.regressionTarget(transition)
	if err != nil {
		t.Fatal(err)
	}

	// A terminal transition's update target is the reward, exactly,
	// with no bootstrapped continuation value
	if target[transition.Action] != transition.Reward {
		t.Errorf("wrong terminal update target\n\twant(%v)\n\thave(%v)",
			transition.Reward, target[transition.Action])
	}
}

func TestRegressionTargetBootstraps(t *testing.T) {
	config := smallConfig()
	agent := newTestAgent(t, config, 1)

	// Diverge the online network from the target network so that the
	// selection/evaluation split is observable
	fillReplay(t, agent, config.ReplayCapacity)
	for i := 0; i < 10; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	state := []float64{0.01, 0.0, 0.02, 0.0}
	nextState := []float64{0.02, 0.1, 0.01, -0.1}
	transition := ts.Transition{
		State:     mat.NewVecDense(4, state),
		Action:    0,
		Reward:    1.0,
		NextState: mat.NewVecDense(4, nextState),
		Done:      false,
	}

	// The online network selects the next action; the target network
	// evaluates it
	nextOnline, err := agent.evaluateOnline(nextState)
	if err != nil {
		t.Fatal(err)
	}
	nextAction := 0
	if nextOnline[1] > nextOnline[0] {
		nextAction = 1
	}
	nextTarget, err := agent.evaluateTarget(nextState)
	if err != nil {
		t.Fatal(err)
	}
	want := transition.Reward + agent.gamma*nextTarget[nextAction]

	target, err := agent.regressionTarget(transition)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(target[transition.Action]-want) > 1e-12 {
		t.Errorf("wrong bootstrapped update target\n\twant(%v)\n\thave(%v)",
			want, target[transition.Action])
	}
}

func TestSyncTarget(t *testing.T) {
	config := smallConfig()
	agent := newTestAgent(t, config, 1)
	fillReplay(t, agent, config.ReplayCapacity)

	obs := []float64{0.01, 0.0, 0.02, 0.0}

	// Learning adapts the online network but must leave the target
	// network untouched
	for i := 0; i < 10; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	online, err := agent.evaluateOnline(obs)
	if err != nil {
		t.Fatal(err)
	}
	target, err := agent.evaluateTarget(obs)
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for i := range online {
		if online[i] != target[i] {
			same = false
		}
	}
	if same {
		t.Fatal("target network changed without synchronization")
	}

	if err := agent.SyncTarget(); err != nil {
		t.Fatal(err)
	}

	target, err = agent.evaluateTarget(obs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range online {
		if online[i] != target[i] {
			t.Errorf("action value %v differs after synchronization"+
				"\n\twant(%v)\n\thave(%v)", i, online[i], target[i])
		}
	}
}

func TestSelectActionInRange(t *testing.T) {
	agent := newTestAgent(t, DefaultConfig(), 1)
	environment := newTestEnv()

	step := environment.Reset()
	for i := 0; i < 100; i++ {
		action := agent.SelectAction(step)
		if action.Len() != 1 {
			t.Fatal("actions should be 1-dimensional")
		}
		if a := int(action.AtVec(0)); a < 0 || a > 1 {
			t.Fatalf("illegal action: %v", a)
		}
	}
}

func TestEvalActsGreedily(t *testing.T) {
	agent := newTestAgent(t, DefaultConfig(), 1)
	agent.Eval()

	obs := []float64{0.01, 0.0, 0.02, 0.0}
	values, err := agent.evaluateOnline(obs)
	if err != nil {
		t.Fatal(err)
	}
	greedy := 0
	if values[1] > values[0] {
		greedy = 1
	}

	// With full exploration configured, only evaluation mode makes
	// every selection greedy
	step := ts.New(ts.First, 0, 1.0, mat.NewVecDense(4, obs), 0)
	for i := 0; i < 50; i++ {
		if a := int(agent.SelectAction(step).AtVec(0)); a != greedy {
			t.Fatalf("non-greedy action %v in evaluation mode", a)
		}
	}
}

func TestEvalDoesNotRecordExperience(t *testing.T) {
	agent := newTestAgent(t, DefaultConfig(), 1)
	agent.Eval()

	environment := newTestEnv()
	step := environment.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	action := agent.SelectAction(step)
	nextStep, _, err := environment.Step(action)
	if err != nil {
		t.Fatal(err)
	}
	if err := agent.Observe(action, nextStep); err != nil {
		t.Fatal(err)
	}

	if agent.replay.Len() != 0 {
		t.Error("evaluation mode should not record experience")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	config := smallConfig()
	agent := newTestAgent(t, config, 1)
	fillReplay(t, agent, config.ReplayCapacity)
	for i := 0; i < 5; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	filename := filepath.Join(t.TempDir(), "weights.bin")
	if err := agent.Save(filename); err != nil {
		t.Fatal(err)
	}

	loaded := newTestAgent(t, config, 2)
	if err := loaded.Load(filename); err != nil {
		t.Fatal(err)
	}

	obs := []float64{0.01, 0.0, 0.02, 0.0}
	want, err := agent.evaluateOnline(obs)
	if err != nil {
		t.Fatal(err)
	}

	online, err := loaded.evaluateOnline(obs)
	if err != nil {
		t.Fatal(err)
	}
	target, err := loaded.evaluateTarget(obs)
	if err != nil {
		t.Fatal(err)
	}

	for i := range want {
		if online[i] != want[i] {
			t.Errorf("online action value %v differs after loading"+
				"\n\twant(%v)\n\thave(%v)", i, want[i], online[i])
		}
		if target[i] != want[i] {
			t.Errorf("target action value %v differs after loading"+
				"\n\twant(%v)\n\thave(%v)", i, want[i], target[i])
		}
	}
}

func TestLearnFromMixedTerminalExperience(t *testing.T) {
	agent := newTestAgent(t, smallConfig(), 1)

	// Four ordinary transitions and one terminal failure
	var terminal ts.Transition
	for i := 0; i < 5; i++ {
		transition := ts.Transition{
			State: mat.NewVecDense(4, []float64{0.01 * float64(i), 0.0,
				0.02, 0.0}),
			Action: i % 2,
			Reward: 1.0,
			NextState: mat.NewVecDense(4, []float64{0.01 * float64(i+1),
				0.0, 0.02, 0.0}),
			Done: false,
		}
		if i == 4 {
			transition.Reward = -10.0
			transition.Done = true
			terminal = transition
		}
		agent.replay.Add(transition)
	}

	target, err := agent.regressionTarget(terminal)
	if err != nil {
		t.Fatal(err)
	}
	if target[terminal.Action] != -10.0 {
		t.Errorf("wrong terminal update target\n\twant(%v)\n\thave(%v)",
			-10.0, target[terminal.Action])
	}

	// Five stored transitions exceed the batch size, so learning must
	// not defer
	if err := agent.Step(); err != nil {
		t.Fatal(err)
	}
	if agent.Epsilon() == 1.0 {
		t.Error("learning call was deferred despite sufficient experience")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.BatchSize = config.ReplayCapacity + 1

	if _, err := New(newTestEnv(), config, 1); err == nil {
		t.Error("expected error for batch size exceeding replay capacity")
	}
}
