package floatutils

import "testing"

func TestArgMax(t *testing.T) {
	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{1.0, 3.0, 2.0}, 1},
		{[]float64{-1.0, -3.0, -2.0}, 0},
		{[]float64{5.0}, 0},
		{[]float64{2.0, 2.0, 2.0}, 0}, // ties break to the first index
		{[]float64{1.0, 2.0, 2.0}, 1},
	}

	for _, test := range tests {
		if got := ArgMax(test.values); got != test.want {
			t.Errorf("ArgMax(%v)\n\twant(%v)\n\thave(%v)", test.values,
				test.want, got)
		}
	}
}

func TestClip(t *testing.T) {
	if got := Clip(5.0, -1.0, 1.0); got != 1.0 {
		t.Errorf("Clip above max\n\twant(%v)\n\thave(%v)", 1.0, got)
	}
	if got := Clip(-5.0, -1.0, 1.0); got != -1.0 {
		t.Errorf("Clip below min\n\twant(%v)\n\thave(%v)", -1.0, got)
	}
	if got := Clip(0.5, -1.0, 1.0); got != 0.5 {
		t.Errorf("Clip within bounds\n\twant(%v)\n\thave(%v)", 0.5, got)
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1.0, 2.0, 3.0}); got != 2.0 {
		t.Errorf("wrong mean\n\twant(%v)\n\thave(%v)", 2.0, got)
	}
}
