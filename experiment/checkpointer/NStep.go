package checkpointer

import (
	"fmt"
	"path/filepath"
)

// NStep checkpoints a Serializable every interval episodes, writing
// each checkpoint to a distinct enumerated file so earlier
// checkpoints are never overwritten.
type NStep struct {
	interval int
	target   Serializable
	enum     *FilenameEnumerator
}

// NewNStep creates and returns a new NStep Checkpointer which saves
// target every interval episodes into dir, using filenames of the
// form base_N.bin.
func NewNStep(interval int, target Serializable, dir, base string) (*NStep,
	error) {
	if interval < 1 {
		return nil, fmt.Errorf("nstep: checkpoint interval must be >= 1"+
			"\n\thave(%v)", interval)
	}
	if target == nil {
		return nil, fmt.Errorf("nstep: no serializable given")
	}

	return &NStep{
		interval: interval,
		target:   target,
		enum:     NewFilenameEnumerator(filepath.Join(dir, base), ".bin"),
	}, nil
}

// Checkpoint saves the target if episode falls on the checkpoint
// interval
func (n *NStep) Checkpoint(episode int) error {
	if episode%n.interval != 0 {
		return nil
	}

	filename := n.enum.Next()
	if err := n.target.Save(filename); err != nil {
		return fmt.Errorf("checkpoint: could not save at episode %v: %v",
			episode, err)
	}
	return nil
}
