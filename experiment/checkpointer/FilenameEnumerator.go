package checkpointer

import "fmt"

// FilenameEnumerator produces a sequence of enumerated filenames of
// the form prefix_N.suffix
type FilenameEnumerator struct {
	prefix string
	suffix string
	count  int
}

// NewFilenameEnumerator creates and returns a new FilenameEnumerator
func NewFilenameEnumerator(prefix, suffix string) *FilenameEnumerator {
	return &FilenameEnumerator{prefix: prefix, suffix: suffix}
}

// Next returns the next filename in the sequence
func (f *FilenameEnumerator) Next() string {
	name := fmt.Sprintf("%v_%v%v", f.prefix, f.count, f.suffix)
	f.count++
	return name
}
