package doubledqn

import (
	"fmt"

	"github.com/polecart/ddqn/agent"
	env "github.com/polecart/ddqn/environment"
	"github.com/polecart/ddqn/initwfn"
	"github.com/polecart/ddqn/network"
	"github.com/polecart/ddqn/solver"
)

// Config implements a configuration for a DoubleDQN agent
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in the neural net
	Biases       []bool                // Whether each hidden layer has a bias
	Activations  []*network.Activation // Activation of each hidden layer

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Solver for adapting the online network's weights
	Solver *solver.Solver

	// Exploration schedule: epsilon starts at Epsilon and is
	// multiplied by EpsilonDecay after each learning call, never
	// falling below EpsilonMin.
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64

	Gamma float64 // Discount factor for bootstrapped targets

	// Experience replay parameters
	ReplayCapacity int
	BatchSize      int
}

// DefaultConfig returns the reference configuration of the DoubleDQN
// agent: a 24-24 rectified-linear action-value network trained with
// Adam at step size 0.001 against a 2000-transition replay buffer.
func DefaultConfig() Config {
	return Config{
		PolicyLayers:   []int{24, 24},
		Biases:         []bool{true, true},
		Activations:    []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:        initwfn.NewGlorotU(1.0),
		Solver:         solver.NewDefaultAdam(0.001, 1),
		Epsilon:        1.0,
		EpsilonMin:     0.01,
		EpsilonDecay:   0.995,
		Gamma:          0.99,
		ReplayCapacity: 2000,
		BatchSize:      32,
	}
}

// Validate checks a Config to ensure it describes a valid DoubleDQN
// agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("config: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("config: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("config: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("config: no solver given")
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("config: epsilon must be in [0, 1]\n\thave(%v)",
			c.Epsilon)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("config: epsilon min must be in [0, epsilon]"+
			"\n\thave(%v)", c.EpsilonMin)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("config: epsilon decay must be in (0, 1]"+
			"\n\thave(%v)", c.EpsilonDecay)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("config: discount must be in [0, 1]\n\thave(%v)",
			c.Gamma)
	}
	if c.ReplayCapacity < 1 {
		return fmt.Errorf("config: replay capacity must be positive"+
			"\n\thave(%v)", c.ReplayCapacity)
	}
	if c.BatchSize < 1 || c.BatchSize > c.ReplayCapacity {
		return fmt.Errorf("config: batch size must be in [1, capacity]"+
			"\n\thave(%v)", c.BatchSize)
	}
	return nil
}

// CreateAgent creates a new DoubleDQN agent as described by the Config
func (c Config) CreateAgent(e env.Environment, seed int64) (agent.Agent,
	error) {
	return New(e, c, seed)
}
