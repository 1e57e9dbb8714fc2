// Package checkpointer implements periodic checkpointing of learned
// agent parameters during an experiment.
package checkpointer

// Serializable is implemented by anything whose state can be written
// to a file, such as an agent's learned weights.
type Serializable interface {
	Save(filename string) error
}

// Checkpointer saves a Serializable at chosen points of an experiment
type Checkpointer interface {
	// Checkpoint possibly saves the Serializable after the given
	// episode has finished
	Checkpoint(episode int) error
}
