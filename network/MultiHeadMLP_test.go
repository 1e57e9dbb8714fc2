package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
)

const (
	testFeatures = 4
	testOutputs  = 2
)

func newTestMLP(t *testing.T, init G.InitWFn) NeuralNet {
	t.Helper()

	net, err := NewMultiHeadMLP(testFeatures, 1, testOutputs, G.NewGraph(),
		[]int{24, 24}, []bool{true, true}, init,
		[]*Activation{ReLU(), ReLU()})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

// predict runs a forward pass of net on obs and returns a copy of the
// predicted values
func predict(t *testing.T, net NeuralNet, obs []float64) []float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput(obs); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	values := net.Output().Data().([]float64)
	out := make([]float64, len(values))
	copy(out, values)

	vm.Reset()
	return out
}

func TestForwardOutputShape(t *testing.T) {
	net := newTestMLP(t, G.GlorotU(1.0))

	out := predict(t, net, []float64{0.1, -0.2, 0.3, -0.4})
	if len(out) != testOutputs {
		t.Fatalf("wrong number of outputs\n\twant(%v)\n\thave(%v)",
			testOutputs, len(out))
	}
}

func TestSetInputWrongLength(t *testing.T) {
	net := newTestMLP(t, G.GlorotU(1.0))

	if err := net.SetInput([]float64{0.1, 0.2}); err == nil {
		t.Error("expected error for too few input features")
	}
	if err := net.SetInput(make([]float64, 8)); err == nil {
		t.Error("expected error for too many input features")
	}
}

func TestSetCopiesWeights(t *testing.T) {
	source := newTestMLP(t, G.GlorotU(1.0))
	dest := newTestMLP(t, G.Zeroes())

	obs := []float64{0.1, -0.2, 0.3, -0.4}

	if err := dest.Set(source); err != nil {
		t.Fatal(err)
	}

	sourceOut := predict(t, source, obs)
	destOut := predict(t, dest, obs)
	for i := range sourceOut {
		if sourceOut[i] != destOut[i] {
			t.Errorf("output %v differs after Set\n\twant(%v)\n\thave(%v)",
				i, sourceOut[i], destOut[i])
		}
	}
}

func TestCloneCopiesWeights(t *testing.T) {
	net := newTestMLP(t, G.GlorotU(1.0))

	clone, err := net.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if clone.Graph() == net.Graph() {
		t.Fatal("clone shares the source network's graph")
	}

	obs := []float64{0.5, 0.5, -0.5, -0.5}
	netOut := predict(t, net, obs)
	cloneOut := predict(t, clone, obs)
	for i := range netOut {
		if netOut[i] != cloneOut[i] {
			t.Errorf("output %v differs after Clone\n\twant(%v)\n\thave(%v)",
				i, netOut[i], cloneOut[i])
		}
	}
}

func TestGobRoundTrip(t *testing.T) {
	net := newTestMLP(t, G.GlorotN(1.0))

	data, err := net.GobEncode()
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadMultiHeadMLP(data)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Features() != testFeatures || loaded.Outputs() != testOutputs {
		t.Fatalf("wrong decoded architecture\n\twant(%v, %v)\n\thave(%v, "+
			"%v)", testFeatures, testOutputs, loaded.Features(),
			loaded.Outputs())
	}

	obs := []float64{0.1, 0.2, 0.3, 0.4}
	netOut := predict(t, net, obs)
	loadedOut := predict(t, loaded, obs)
	for i := range netOut {
		if netOut[i] != loadedOut[i] {
			t.Errorf("output %v differs after decoding\n\twant(%v)"+
				"\n\thave(%v)", i, netOut[i], loadedOut[i])
		}
	}
}
