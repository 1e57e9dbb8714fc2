package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a feedforward neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feedforward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsIdentity() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// GobEncode serializes the layer's current weight and bias values
func (f *fcLayer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	hasBias := f.bias != nil
	if err := enc.Encode(hasBias); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias flag: %v",
			err)
	}

	weights, ok := f.weights.Value().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("gobencode: layer weights are not dense")
	}
	if err := enc.Encode(weights); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weights: %v", err)
	}

	if hasBias {
		bias, ok := f.bias.Value().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("gobencode: layer bias is not dense")
		}
		if err := enc.Encode(bias); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode bias: %v", err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode loads serialized weight and bias values into the layer's
// existing graph nodes. The layer must already have the same shape as
// the serialized one.
func (f *fcLayer) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var hasBias bool
	if err := dec.Decode(&hasBias); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias flag: %v", err)
	}

	weights := new(tensor.Dense)
	if err := dec.Decode(weights); err != nil {
		return fmt.Errorf("gobdecode: could not decode weights: %v", err)
	}
	if err := G.Let(f.weights, weights); err != nil {
		return fmt.Errorf("gobdecode: could not set weights: %v", err)
	}

	if hasBias {
		bias := new(tensor.Dense)
		if err := dec.Decode(bias); err != nil {
			return fmt.Errorf("gobdecode: could not decode bias: %v", err)
		}
		if err := G.Let(f.bias, bias); err != nil {
			return fmt.Errorf("gobdecode: could not set bias: %v", err)
		}
	}

	return nil
}

// addFCLayers populates a graph with a stack of fully connected layers.
// For index i, sizes[i] is the width of layer i, biases[i] determines
// whether layer i has a bias unit, and activations[i] is its activation
// function. The features parameter is the width of the input to the
// first layer.
func addFCLayers(g *G.ExprGraph, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int) []Layer {
	layers := make([]Layer, 0, len(sizes))
	prevSize := features

	for i, size := range sizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(prevSize, size),
			G.WithName(fmt.Sprintf("L%dW", i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, size),
				G.WithName(fmt.Sprintf("L%dB", i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})
		prevSize = size
	}

	return layers
}
