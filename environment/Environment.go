// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polecart/ddqn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when an episode ends. If a TimeStep ends an
// episode, End adjusts its StepType to timestep.Last, records the
// reason on the TimeStep, and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
	Min() float64 // Minimum possible reward
	Max() float64 // Maximum possible reward
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool, error)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Cardinality indicates whether the associated space is continuous or
// discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward.
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Spec implements a specification, which tells the type, shape, and
// bounds of an action, observation, discount, or reward
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}
