// Package network implements neural network function approximators
// using Gorgonia computational graphs.
package network

import (
	"encoding/gob"

	G "gorgonia.org/gorgonia"
)

// NeuralNet is a parametric function from a batch of feature vectors
// to a batch of output vectors, expressed as nodes in a Gorgonia
// graph. A NeuralNet only populates the graph; an external virtual
// machine must be run to produce predictions. The usual flow is:
//
//	vm := G.NewTapeMachine(net.Graph())
//	net.SetInput(obs)
//	vm.RunAll()
//	values := net.Output()
//	vm.Reset()
//
// NeuralNets are serializable with encoding/gob so that learned
// parameters can be checkpointed and later reloaded.
type NeuralNet interface {
	gob.GobEncoder
	gob.GobDecoder

	// Graph returns the computational graph holding the network
	Graph() *G.ExprGraph

	// Clone deep copies the network, including its current weights,
	// onto a fresh computational graph. CloneWithBatch does the same
	// but changes the input batch dimension.
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node before running the
	// graph. The input length must equal Features() * BatchSize();
	// a mismatch is a configuration error and is surfaced, never
	// truncated or padded.
	SetInput([]float64) error

	// Set overwrites this network's entire parameter set with a copy
	// of the source network's parameters. The two networks share no
	// storage afterwards.
	Set(NeuralNet) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Prediction returns the output node of the graph; Output returns
	// the value stored at that node by the last vm run.
	Prediction() *G.Node
	Output() G.Value
}
