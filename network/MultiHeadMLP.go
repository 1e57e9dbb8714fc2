package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with one output
// head per value that should be predicted. For an action-value
// network, each head predicts the value of one discrete action.
type multiHeadMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Architecture description, needed for cloning and gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// with a number of output heads equal to outputs. The graph g is
// populated with the MLP.
//
// The MLP has len(hiddenSizes) hidden layers, where hiddenSizes[i] is
// the width of hidden layer i, biases[i] determines whether it has a
// bias unit, and activations[i] is its activation function. A final
// linear layer with a bias unit and no activation is always added so
// that the network produces outputs raw predictions. The init
// parameter determines the weight initialization scheme.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newmultiheadmlp: invalid number of "+
			"activations\n\twant(%d)\n\thave(%d)", len(hiddenSizes),
			len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newmultiheadmlp: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newmultiheadmlp: features, batch, and "+
			"outputs must be positive\n\thave(%d, %d, %d)", features, batch,
			outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// A final linear layer guarantees one raw output per head
	hiddenSizes = append(append([]int{}, hiddenSizes...), outputs)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), Identity())

	layers := addFCLayers(g, hiddenSizes, biases, activations, init, features)

	network := multiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// LoadMultiHeadMLP reconstructs a multi-head MLP, including its
// learned parameters, from a blob produced by the network's GobEncode.
func LoadMultiHeadMLP(data []byte) (NeuralNet, error) {
	net := new(multiHeadMLP)
	if err := net.GobDecode(data); err != nil {
		return nil, fmt.Errorf("loadmultiheadmlp: %v", err)
	}
	return net, nil
}

// Graph returns the computational graph of the multiHeadMLP
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a multiHeadMLP onto a fresh graph, copying the current
// weight values.
func (e *multiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a multiHeadMLP with a new input batch size
func (e *multiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be positive")
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]Layer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].CloneTo(graph)
	}

	network := multiHeadMLP{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of input rows the network consumes per
// forward pass
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input
// observation vector
func (e *multiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of output heads of the network
func (e *multiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass. An input whose length disagrees with the configured input
// width is a structural mismatch between environment and network and
// is surfaced as an error.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set overwrites the weights of the multiHeadMLP with a copy of the
// weights of another NeuralNet. No storage is shared afterwards: the
// two networks evolve independently until the next Set.
func (dest *multiHeadMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source network has %v learnables but "+
			"destination has %v", len(sourceNodes), len(nodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a multiHeadMLP
func (e *multiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(e.layers))
		for i := range e.layers {
			learnables = append(learnables, e.layers[i].Weights())
			if bias := e.layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		e.learnables = G.Nodes(learnables)
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients
func (e *multiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		model := make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			model = append(model, node)
		}
		e.model = model
	}
	return e.model
}

// fwd adds the forward pass of the multiHeadMLP to the graph
func (e *multiHeadMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return nil
}

// Output returns the value of the prediction node computed by the last
// vm run
func (e *multiHeadMLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the multiHeadMLP
func (e *multiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface, serializing the
// architecture and the current parameter values.
func (e *multiHeadMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	// Stored hidden sizes include the added output layer; strip it so
	// that decoding reconstructs through the constructor.
	if err := enc.Encode(e.numInputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode inputs: %v", err)
	}
	if err := enc.Encode(e.batchSize); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size: %v",
			err)
	}
	if err := enc.Encode(e.numOutputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode outputs: %v", err)
	}
	if err := enc.Encode(e.hiddenSizes[:len(e.hiddenSizes)-1]); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes: %v",
			err)
	}
	if err := enc.Encode(e.biases[:len(e.biases)-1]); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases: %v", err)
	}
	if err := enc.Encode(e.activations[:len(e.activations)-1]); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations: %v",
			err)
	}

	for i := range e.layers {
		layer, ok := e.layers[i].(*fcLayer)
		if !ok {
			return nil, fmt.Errorf("gobencode: layer %v is not serializable",
				i)
		}
		if err := enc.Encode(layer); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode layer %v: %v",
				i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The receiver is
// completely overwritten with the decoded network.
func (e *multiHeadMLP) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var numInputs, batchSize, numOutputs int
	if err := dec.Decode(&numInputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode inputs: %v", err)
	}
	if err := dec.Decode(&batchSize); err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size: %v", err)
	}
	if err := dec.Decode(&numOutputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode outputs: %v", err)
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes: %v", err)
	}
	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases: %v", err)
	}
	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations: %v", err)
	}

	g := G.NewGraph()
	newNet, err := NewMultiHeadMLP(numInputs, batchSize, numOutputs, g,
		hiddenSizes, biases, G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct network: %v", err)
	}
	newMLP := newNet.(*multiHeadMLP)

	for i := range newMLP.layers {
		layer := newMLP.layers[i].(*fcLayer)
		if err := dec.Decode(layer); err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}
	}

	*e = *newMLP
	return nil
}
