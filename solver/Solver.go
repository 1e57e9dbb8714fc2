// Package solver wraps Gorgonia Solvers so that they can be serialized
// into JSON configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the available solver types
type Type string

const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
)

// Solver wraps a Gorgonia Solver so that it can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// Config describes a Gorgonia Solver and can create the Solver it
// describes.
type Config interface {
	Create() G.Solver
	Type() Type
}

func newSolver(c Config) *Solver {
	solver := Solver{Type: c.Type(), Config: c}
	solver.Solver = solver.Config.Create()
	return &solver
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	typeName, ok := m["Type"].(string)
	if !ok {
		return fmt.Errorf("unmarshaljson: missing solver type")
	}

	concreteTypes := map[string]reflect.Type{
		string(Adam):    reflect.TypeOf(AdamConfig{}),
		string(Vanilla): reflect.TypeOf(VanillaConfig{}),
	}
	ty, found := concreteTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshaljson: no such solver type %v", typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m["Config"])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(valueBytes, value); err != nil {
		return err
	}

	s.Type = Type(typeName)
	s.Config = reflect.ValueOf(value).Elem().Interface().(Config)
	s.Solver = s.Config.Create()

	return nil
}

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	Batch    int
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64, batchSize int) *Solver {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64, batchSize int) *Solver {
	return newSolver(AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	})
}

func (a AdamConfig) Type() Type {
	return Adam
}

// Create returns a new Gorgonia Adam Solver as described by the
// AdamConfig
func (a AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	)
}

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Batch    int
}

// NewVanilla returns a new vanilla gradient descent Solver
func NewVanilla(stepSize float64, batchSize int) *Solver {
	return newSolver(VanillaConfig{StepSize: stepSize, Batch: batchSize})
}

func (v VanillaConfig) Type() Type {
	return Vanilla
}

// Create returns a new Gorgonia vanilla Solver as described by the
// VanillaConfig
func (v VanillaConfig) Create() G.Solver {
	return G.NewVanillaSolver(
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	)
}
