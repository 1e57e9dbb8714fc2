// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/polecart/ddqn/timestep"
)

// Buffer is a fixed-capacity, insertion-ordered store of Transitions.
// When full, adding a new Transition evicts the oldest (FIFO ring
// semantics). Sampling draws a batch uniformly at random without
// replacement.
//
// The random generator is injected at construction so that sampling is
// reproducible under a fixed seed.
type Buffer struct {
	data      []timestep.Transition
	head      int // index of the oldest element
	size      int
	batchSize int
	rng       *rand.Rand
}

// New creates and returns a new Buffer holding at most capacity
// Transitions, from which Sample draws batches of batchSize.
func New(capacity, batchSize int, rng *rand.Rand) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batch size must be >= 1")
	}
	if batchSize > capacity {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > "+
			"buffer capacity (%v)", batchSize, capacity)
	}
	if rng == nil {
		return nil, fmt.Errorf("new: no random number generator given")
	}

	return &Buffer{
		data:      make([]timestep.Transition, capacity),
		head:      0,
		size:      0,
		batchSize: batchSize,
		rng:       rng,
	}, nil
}

// Add appends a Transition to the tail of the Buffer, evicting the
// oldest element first when the Buffer is full. O(1).
func (b *Buffer) Add(t timestep.Transition) {
	if b.size < len(b.data) {
		b.data[(b.head+b.size)%len(b.data)] = t
		b.size++
		return
	}

	// Full: overwrite the oldest slot and advance the head
	b.data[b.head] = t
	b.head = (b.head + 1) % len(b.data)
}

// Sample returns BatchSize() distinct Transitions chosen uniformly at
// random from the Buffer, in no particular order. Sampling an empty
// Buffer or one holding fewer than BatchSize() elements returns an
// error satisfying IsEmptyBuffer or IsInsufficientSamples
// respectively; callers should check Len() first and defer learning
// rather than treat this as fatal.
func (b *Buffer) Sample() ([]timestep.Transition, error) {
	if b.size == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if b.size < b.batchSize {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	batch := make([]timestep.Transition, b.batchSize)
	for i, j := range b.rng.Perm(b.size)[:b.batchSize] {
		batch[i] = b.data[(b.head+j)%len(b.data)]
	}
	return batch, nil
}

// Len returns the current number of Transitions in the Buffer
func (b *Buffer) Len() int {
	return b.size
}

// MaxCapacity returns the maximum number of Transitions the Buffer
// can hold
func (b *Buffer) MaxCapacity() int {
	return len(b.data)
}

// BatchSize returns the number of samples returned by Sample()
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer | Size: %v/%v  |  Batch Size: %v", b.size,
		len(b.data), b.batchSize)
}
