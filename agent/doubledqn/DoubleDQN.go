// Package doubledqn implements the double deep Q-learning algorithm.
//
// Double deep Q-learning maintains two action-value networks with
// identical architecture: an online network, trained on every learning
// step, and a target network, overwritten with a snapshot of the
// online weights only at explicit synchronization points. When
// bootstrapping the value of a next state, the online network selects
// the best next action and the lagged target network evaluates it.
// Decoupling selection from evaluation is what mitigates the value
// overestimation of single-network Q-learning, so the two roles must
// never be collapsed into one max over a single network.
package doubledqn

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	env "github.com/polecart/ddqn/environment"
	"github.com/polecart/ddqn/expreplay"
	"github.com/polecart/ddqn/network"
	ts "github.com/polecart/ddqn/timestep"
	"github.com/polecart/ddqn/utils/floatutils"
)

// DoubleDQN implements the double deep Q-learning algorithm with
// experience replay and an epsilon-greedy behaviour policy.
//
// The agent is safe for sequential use only, except that learning
// steps and target synchronization are each a critical section: a
// learning step never observes the target network mid-copy, and no two
// learning steps mutate the online weights concurrently.
type DoubleDQN struct {
	mu sync.Mutex

	// Online network with its regression-target node, loss, and
	// solver. The same graph serves action-value evaluation and
	// learning; a solver step is only applied when learning.
	online   network.NeuralNet
	onlineVM G.VM
	targets  *G.Node
	solver   G.Solver

	// Lagged snapshot of the online network used to evaluate
	// bootstrapped targets. Only ever written by SyncTarget.
	target   network.NeuralNet
	targetVM G.VM

	replay *expreplay.Buffer
	rng    *rand.Rand

	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64
	gamma        float64

	numActions  int
	numFeatures int

	// Most recently observed timestep, the state part of the next
	// recorded transition
	lastStep ts.TimeStep

	eval bool // Whether in evaluation mode
}

// New creates and returns a new DoubleDQN agent acting in the given
// environment. The seed determines both exploration draws and replay
// sampling, so a fixed seed yields a reproducible run.
func New(e env.Environment, config Config, seed int64) (*DoubleDQN, error) {
	// Ensure environment has discrete, 1-dimensional actions
	// enumerated from 0
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("doubledqn: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("doubledqn: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("doubledqn: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := e.ObservationSpec().Shape.Len()

	// Online action-value network. Each sampled transition triggers
	// its own gradient computation and immediate weight update, so the
	// network consumes a single state per forward pass.
	g := G.NewGraph()
	online, err := network.NewMultiHeadMLP(numFeatures, 1, numActions, g,
		config.PolicyLayers, config.Biases, config.InitWFn.InitWFn(),
		config.Activations)
	if err != nil {
		return nil, fmt.Errorf("doubledqn: could not create online "+
			"network: %v", err)
	}

	// Regression target: the online network's own prediction with the
	// taken action's entry overwritten, so gradient signal flows only
	// through that one output coordinate.
	targets := G.NewMatrix(g, tensor.Float64, G.WithShape(1, numActions),
		G.WithName("updateTarget"), G.WithInit(G.Zeroes()))

	losses := G.Must(G.Square(G.Must(G.Sub(online.Prediction(), targets))))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, online.Learnables()...); err != nil {
		return nil, fmt.Errorf("doubledqn: could not compute gradient: %v",
			err)
	}
	onlineVM := G.NewTapeMachine(g, G.BindDualValues(online.Learnables()...))

	// The target network starts as a snapshot of the online weights,
	// exactly as if SyncTarget had been called at construction
	targetClone, err := online.Clone()
	if err != nil {
		return nil, fmt.Errorf("doubledqn: could not create target "+
			"network: %v", err)
	}
	targetVM := G.NewTapeMachine(targetClone.Graph())

	rng := rand.New(rand.NewSource(seed))
	replay, err := expreplay.New(config.ReplayCapacity, config.BatchSize, rng)
	if err != nil {
		return nil, fmt.Errorf("doubledqn: could not create replay "+
			"buffer: %v", err)
	}

	return &DoubleDQN{
		online:       online,
		onlineVM:     onlineVM,
		targets:      targets,
		solver:       config.Solver,
		target:       targetClone,
		targetVM:     targetVM,
		replay:       replay,
		rng:          rng,
		epsilon:      config.Epsilon,
		epsilonMin:   config.EpsilonMin,
		epsilonDecay: config.EpsilonDecay,
		gamma:        config.Gamma,
		numActions:   numActions,
		numFeatures:  numFeatures,
	}, nil
}

// SelectAction selects an action epsilon-greedily with respect to the
// online network's action values at the current observation. With
// probability epsilon a uniformly random action is returned; otherwise
// the action of maximal value, ties broken in favour of the first
// maximal index. In evaluation mode the policy is purely greedy.
func (d *DoubleDQN) SelectAction(t ts.TimeStep) *mat.VecDense {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.eval && d.rng.Float64() <= d.epsilon {
		action := d.rng.Intn(d.numActions)
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	actionValues, err := d.evaluateOnline(rawObs(t.Observation))
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	action := floatutils.ArgMax(actionValues)
	return mat.NewVecDense(1, []float64{float64(action)})
}

// ObserveFirst observes and records the first episodic timestep
func (d *DoubleDQN) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %v)\n",
			t.Number)
	}
	d.lastStep = t
	return nil
}

// Observe records the transition from the previously observed timestep
// to nextStep under the given action, appending it to the replay
// buffer. No learning occurs here. In evaluation mode nothing is
// recorded.
func (d *DoubleDQN) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions (action dim = %v)", action.Len())
	}

	if !d.eval {
		transition := ts.NewTransition(d.lastStep, int(action.AtVec(0)),
			nextStep)
		d.replay.Add(transition)
	}

	d.lastStep = nextStep
	return nil
}

// Step performs one learning call on a batch of replayed experience.
//
// If the replay buffer holds fewer transitions than one batch, the
// call is a silent no-op: learning is deferred, not an error. The
// epsilon decay only happens on calls that actually learn.
//
// Each sampled transition triggers its own gradient computation and an
// immediately applied weight update, so later transitions within the
// same call see the already-updated online weights. This per-sample
// sequencing is part of the algorithm's contract; collapsing the batch
// into a single averaged gradient step changes the numerical results.
func (d *DoubleDQN) Step() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample experience: %v", err)
	}

	for _, transition := range batch {
		target, err := d.regressionTarget(transition)
		if err != nil {
			return fmt.Errorf("step: could not compute update target: %v",
				err)
		}
		if err := d.update(transition, target); err != nil {
			return fmt.Errorf("step: could not update weights: %v", err)
		}
	}

	d.epsilon = math.Max(d.epsilonMin, d.epsilon*d.epsilonDecay)
	return nil
}

// regressionTarget builds the regression target for one transition:
// the online network's action-value vector at the transition's state
// with the taken action's entry replaced by the update target.
//
// For a terminal transition the update target is exactly the reward;
// episode end is defined as zero continuation value. Otherwise the
// online network selects the best next action and the target network
// evaluates it:
//
//	y[a] = r + γ * Qtarget(s', argmax_a' Qonline(s', a'))
func (d *DoubleDQN) regressionTarget(t ts.Transition) ([]float64, error) {
	target, err := d.evaluateOnline(rawObs(t.State))
	if err != nil {
		return nil, err
	}

	if t.Done {
		target[t.Action] = t.Reward
		return target, nil
	}

	nextObs := rawObs(t.NextState)
	nextOnline, err := d.evaluateOnline(nextObs)
	if err != nil {
		return nil, err
	}
	nextAction := floatutils.ArgMax(nextOnline)

	nextTarget, err := d.evaluateTarget(nextObs)
	if err != nil {
		return nil, err
	}

	target[t.Action] = t.Reward + d.gamma*nextTarget[nextAction]
	return target, nil
}

// update applies one gradient step to the online network, minimizing
// the squared error between its action-value vector at the
// transition's state and the given target vector.
func (d *DoubleDQN) update(t ts.Transition, target []float64) error {
	if err := d.online.SetInput(rawObs(t.State)); err != nil {
		return err
	}

	targetTensor := tensor.New(
		tensor.WithShape(1, d.numActions),
		tensor.WithBacking(target),
	)
	if err := G.Let(d.targets, targetTensor); err != nil {
		return err
	}

	if err := d.onlineVM.RunAll(); err != nil {
		return err
	}
	if err := d.solver.Step(d.online.Model()); err != nil {
		return err
	}
	d.onlineVM.Reset()

	return nil
}

// SyncTarget overwrites the target network's entire parameter set with
// a snapshot of the online network's current parameters. The copy is
// atomic with respect to learning steps: a partially synchronized
// target would corrupt the bootstrapped targets of in-flight updates.
func (d *DoubleDQN) SyncTarget() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.target.Set(d.online)
}

// Epsilon returns the current exploration rate
func (d *DoubleDQN) Epsilon() float64 {
	return d.epsilon
}

// BatchSize returns the number of transitions sampled per learning
// call
func (d *DoubleDQN) BatchSize() int {
	return d.replay.BatchSize()
}

// Eval sets the agent into evaluation mode: the policy becomes purely
// greedy and experience is no longer recorded.
func (d *DoubleDQN) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DoubleDQN) Train() {
	d.eval = false
}

// EndEpisode performs cleanup at the end of an episode
func (d *DoubleDQN) EndEpisode() {}

// Save writes the online network's full parameter set to a file as an
// opaque blob, for offline checkpointing and later non-training
// evaluation.
func (d *DoubleDQN) Save(filename string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.online.GobEncode()
	if err != nil {
		return fmt.Errorf("save: could not serialize online network: %v", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: could not write checkpoint: %v", err)
	}
	return nil
}

// Load overwrites both the online and target networks with the
// parameter set stored in a checkpoint file written by Save. The
// loaded architecture must match the agent's.
func (d *DoubleDQN) Load(filename string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load: could not read checkpoint: %v", err)
	}

	net, err := network.LoadMultiHeadMLP(data)
	if err != nil {
		return fmt.Errorf("load: could not reconstruct network: %v", err)
	}
	if net.Features() != d.numFeatures || net.Outputs() != d.numActions {
		return fmt.Errorf("load: checkpoint shape mismatch"+
			"\n\twant(%v features, %v actions)\n\thave(%v features, "+
			"%v actions)", d.numFeatures, d.numActions, net.Features(),
			net.Outputs())
	}

	if err := d.online.Set(net); err != nil {
		return fmt.Errorf("load: could not set online network: %v", err)
	}
	if err := d.target.Set(net); err != nil {
		return fmt.Errorf("load: could not set target network: %v", err)
	}
	return nil
}

// evaluateOnline runs the online network forward on a single
// observation, returning a copy of its action-value vector. The graph
// also holds the loss, so the regression-target node is zeroed first;
// no solver step is taken, leaving the weights untouched.
func (d *DoubleDQN) evaluateOnline(obs []float64) ([]float64, error) {
	zeros := tensor.New(tensor.Of(tensor.Float64),
		tensor.WithShape(1, d.numActions))
	if err := G.Let(d.targets, zeros); err != nil {
		return nil, err
	}

	return evaluate(d.online, d.onlineVM, obs)
}

// evaluateTarget runs the target network forward on a single
// observation, returning a copy of its action-value vector.
func (d *DoubleDQN) evaluateTarget(obs []float64) ([]float64, error) {
	return evaluate(d.target, d.targetVM, obs)
}

func evaluate(net network.NeuralNet, vm G.VM, obs []float64) ([]float64,
	error) {
	if err := net.SetInput(obs); err != nil {
		return nil, err
	}
	if err := vm.RunAll(); err != nil {
		return nil, err
	}

	values := net.Output().Data().([]float64)
	out := make([]float64, len(values))
	copy(out, values)

	vm.Reset()
	return out, nil
}

// rawObs extracts the backing data of an observation vector
func rawObs(v mat.Vector) []float64 {
	if dense, ok := v.(*mat.VecDense); ok {
		return dense.RawVector().Data
	}

	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
