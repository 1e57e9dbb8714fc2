package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/polecart/ddqn/timestep"
)

// Return tracks the episodic return, the undiscounted sum of rewards
// seen over each episode of an experiment.
type Return struct {
	currentReturn float64
	returns       []float64
	filename      string
}

// NewReturn creates and returns a new Return Tracker which will save
// the tracked episodic returns to the file filename.
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track records the reward of a single timestep. When the timestep is
// the last in its episode, the accumulated return is finalized and a
// new accumulator started.
func (r *Return) Track(t ts.TimeStep) {
	if t.First() {
		r.currentReturn = 0
		return
	}

	r.currentReturn += t.Reward
	if t.Last() {
		r.returns = append(r.returns, r.currentReturn)
	}
}

// Returns returns the episodic returns recorded so far
func (r *Return) Returns() []float64 {
	out := make([]float64, len(r.returns))
	copy(out, r.returns)
	return out
}

// Save writes the tracked episodic returns to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(r.returns); err != nil {
		return fmt.Errorf("save: could not encode returns: %v", err)
	}
	return nil
}
