// Package agent defines the interfaces a learning agent satisfies
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polecart/ddqn/timestep"
)

// Agent determines the implementation details of an agent or algorithm.
//
// An Agent is composed of a Learner, which adapts weights from
// recorded experience, and a Policy, which chooses actions in each
// state. For a given agent the Policy and Learner should share
// weights, so that learning is reflected in the actions chosen.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated from recorded experience.
type Learner interface {
	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// Observe records that an action led to some timestep. This is
	// purely a recording side effect; no learning happens here.
	Observe(action mat.Vector, nextStep timestep.TimeStep) error

	// Step performs a single learning update. Agents that learn from
	// replayed experience silently defer the update when too little
	// experience has been recorded.
	Step() error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have for selecting
// actions.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()  // Set policy to evaluation mode
	Train() // Set policy to training mode
}

// TargetSyncer is an Agent holding a lagged target value function that
// must be synchronized with its online value function on some cadence
// chosen by the training driver.
type TargetSyncer interface {
	SyncTarget() error
}

// Explorer is a Policy whose exploration is governed by an epsilon
// parameter that can be read out for reporting.
type Explorer interface {
	Epsilon() float64
}
