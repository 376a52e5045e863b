package corpus

import (
	"errors"
	"fmt"
)

var (
	ErrCorpusLoad        = errors.New("corpus load failed")
	ErrCorpusBuild       = errors.New("corpus build failed")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmbeddingRefresh  = errors.New("embedding refresh failed")
)

// DimensionMismatchError identifies a document whose embedding length differs
// from the query or the rest of the corpus.
type DimensionMismatchError struct {
	Index int
	Name  string
	Want  int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("document %d (%s): embedding has %d dimensions, expected %d", e.Index, e.Name, e.Got, e.Want)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
