// Package initwfn wraps Gorgonia weight initialization functions so
// that they can be serialized into JSON configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the available weight initialization algorithms
type Type string

const (
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	Zeroes  Type = "Zeroes"
)

// InitWFn wraps a Gorgonia InitWFn so that it can be JSON marshalled
// and unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// Config describes a weight initialization algorithm and can create
// the Gorgonia InitWFn it describes.
type Config interface {
	Create() G.InitWFn
	Type() Type
}

func newInitWFn(c Config) *InitWFn {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()
	return &init
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type, w.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	typeName, ok := m["Type"].(string)
	if !ok {
		return fmt.Errorf("unmarshaljson: missing InitWFn type")
	}

	concreteTypes := map[string]reflect.Type{
		string(GlorotU): reflect.TypeOf(GlorotUConfig{}),
		string(GlorotN): reflect.TypeOf(GlorotNConfig{}),
		string(Zeroes):  reflect.TypeOf(ZeroesConfig{}),
	}
	ty, found := concreteTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshaljson: no such InitWFn type %v", typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m["Config"])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(valueBytes, value); err != nil {
		return err
	}

	w.Type = Type(typeName)
	w.Config = reflect.ValueOf(value).Elem().Interface().(Config)
	w.initWFn = w.Config.Create()

	return nil
}

// GlorotUConfig describes Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) *InitWFn {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type {
	return GlorotU
}

func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) *InitWFn {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (g GlorotNConfig) Type() Type {
	return GlorotN
}

func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}

// ZeroesConfig describes all-zero initialization
type ZeroesConfig struct{}

// NewZeroes returns a new all-zero weight initializer
func NewZeroes() *InitWFn {
	return newInitWFn(ZeroesConfig{})
}

func (z ZeroesConfig) Type() Type {
	return Zeroes
}

func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}
