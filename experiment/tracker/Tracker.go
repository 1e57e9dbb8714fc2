// Package tracker implements tracking and saving of experimental data
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/polecart/ddqn/timestep"
)

// Tracker tracks experimental data of an agent-environment
// interaction and saves it to disk when the experiment finishes
type Tracker interface {
	// Track records the data of interest from a single timestep
	Track(t ts.TimeStep)

	// Save writes all tracked data to disk
	Save() error
}

// LoadFData reads a slice of float64 data from a file written by a
// Tracker's Save method.
func LoadFData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadfdata: could not open file: %v", err)
	}
	defer file.Close()

	var data []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadfdata: could not decode data: %v", err)
	}
	return data, nil
}
