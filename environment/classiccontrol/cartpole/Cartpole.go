// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/polecart/ddqn/environment"
	ts "github.com/polecart/ddqn/timestep"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnitude of force applied to the cart
	Dt             float64 = 0.02 // Seconds between state updates

	// Failure bounds (+/-) on the cart position and the pole angle.
	// Leaving either interval terminates the episode.
	FailPosition float64 = 2.4
	FailAngle    float64 = 12 * 2 * math.Pi / 360

	// Bound (+/-) on the uniform starting-state distribution, applied
	// to every state feature
	StartBound float64 = 0.05

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1
)

// ObservationSize is the number of features in a state observation
const ObservationSize int = 4

// Cartpole implements the classic control environment in which a pole
// is attached to a cart moving along a frictionless track. The agent
// must keep the pole upright for as long as possible by accelerating
// the cart left or right.
//
// The state features are continuous and consist of the cart's
// horizontal position and velocity, and the pole's angle from vertical
// and angular velocity. Episodes end when the cart position or pole
// angle leaves its failure interval, or at the Task's step limit.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Accelerate right
type Cartpole struct {
	env.Task
	lastStep ts.TimeStep
	discount float64
}

// New constructs a new Cartpole environment with the given Task and
// returns it along with the first TimeStep of the first episode.
func New(t env.Task, discount float64) (*Cartpole, ts.TimeStep) {
	state := t.Start()

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)
	cartpole := Cartpole{t, firstStep, discount}

	return &cartpole, firstStep
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() ts.TimeStep {
	state := c.Start()
	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	c.lastStep = startStep

	return startStep
}

// Step takes one environmental step given action a, returning the next
// state as a TimeStep and a bool indicating whether the episode ended.
func (c *Cartpole) Step(a mat.Vector) (ts.TimeStep, bool, error) {
	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ [%v, %v]", action, MinDiscreteAction, MaxDiscreteAction)
	}

	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := ForceMag
	if action == 0 {
		force = -ForceMag
	}

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	newState := mat.NewVecDense(ObservationSize, []float64{x, xDot, th, thDot})
	reward := c.GetReward(c.lastStep.Observation, a, newState)
	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.lastStep.Number+1)

	c.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.Spec{
		Shape:       shape,
		Type:        env.Action,
		LowerBound:  lowerBound,
		UpperBound:  upperBound,
		Cardinality: env.Discrete,
	}
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationSize, nil)

	lower := []float64{-FailPosition, math.Inf(-1), -FailAngle, math.Inf(-1)}
	upper := []float64{FailPosition, math.Inf(1), FailAngle, math.Inf(1)}

	return env.Spec{
		Shape:       shape,
		Type:        env.Observation,
		LowerBound:  mat.NewVecDense(ObservationSize, lower),
		UpperBound:  mat.NewVecDense(ObservationSize, upper),
		Cardinality: env.Continuous,
	}
}

// DiscountSpec returns the discounting specification of the environment
func (c *Cartpole) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{c.discount})

	return env.Spec{
		Shape:       shape,
		Type:        env.Discount,
		LowerBound:  bound,
		UpperBound:  bound,
		Cardinality: env.Continuous,
	}
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  |  Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	return fmt.Sprintf(msg, state.AtVec(0), state.AtVec(1), state.AtVec(2),
		state.AtVec(3))
}
