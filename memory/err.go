package memory

import (
	"errors"

	"github.com/ezrec/vcpu/translate"
)

var f = translate.From

var (
	ErrOutOfBounds  = errors.New(f("out of bounds"))
	ErrSnapshotSize = errors.New(f("snapshot size mismatch"))
)

// ErrAccess locates a failed memory access.
type ErrAccess struct {
	Offset int
	Width  int
	Err    error
}

func (err *ErrAccess) Error() string {
	return f("offset %#04x width %d %v", err.Offset, err.Width, err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}
