package nn

import "github.com/pkg/errors"

var (
	// ErrDimensionMismatch reports a vector or matrix whose length does not
	// match the geometry it was handed to.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyDataset reports an operation that needs at least one row.
	ErrEmptyDataset = errors.New("empty dataset")
)

func mismatch(op string, got, want int) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s: got length %d, want %d", op, got, want)
}
