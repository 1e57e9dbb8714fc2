// Package experiment implements agent-environment experiments
package experiment

// Experiment is a runnable agent-environment interaction which tracks
// data of interest and can save that data once finished
type Experiment interface {
	// Run runs the experiment to completion
	Run() error

	// Save writes all tracked experimental data to disk
	Save() error
}
