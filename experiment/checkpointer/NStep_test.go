package checkpointer

import (
	"os"
	"testing"
)

// recorder implements Serializable, recording the filenames it was
// asked to save to
type recorder struct {
	filenames []string
}

func (r *recorder) Save(filename string) error {
	r.filenames = append(r.filenames, filename)
	return nil
}

func TestNStepCheckpointsOnInterval(t *testing.T) {
	target := new(recorder)
	nstep, err := NewNStep(10, target, t.TempDir(), "weights")
	if err != nil {
		t.Fatal(err)
	}

	for episode := 1; episode <= 35; episode++ {
		if err := nstep.Checkpoint(episode); err != nil {
			t.Fatal(err)
		}
	}

	// Episodes 10, 20, 30
	if len(target.filenames) != 3 {
		t.Fatalf("wrong number of checkpoints\n\twant(%v)\n\thave(%v)", 3,
			len(target.filenames))
	}
}

func TestNStepEnumeratesFilenames(t *testing.T) {
	target := new(recorder)
	nstep, err := NewNStep(1, target, t.TempDir(), "weights")
	if err != nil {
		t.Fatal(err)
	}

	for episode := 1; episode <= 3; episode++ {
		if err := nstep.Checkpoint(episode); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[string]bool)
	for _, filename := range target.filenames {
		if seen[filename] {
			t.Errorf("filename %v reused across checkpoints", filename)
		}
		seen[filename] = true
	}
}

func TestNStepRejectsInvalidArguments(t *testing.T) {
	dir, err := os.MkdirTemp("", "checkpointer")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	if _, err := NewNStep(0, new(recorder), dir, "weights"); err == nil {
		t.Error("expected error for non-positive interval")
	}
	if _, err := NewNStep(1, nil, dir, "weights"); err == nil {
		t.Error("expected error for nil serializable")
	}
}
