package linsys

import "github.com/cockroachdb/errors"

var (
	// ErrNotCreated is returned by any operation on a Matrix, Vector or System
	// before Create or after Destroy. Shape mismatches between collaborating
	// objects (neq, vector lengths) and repeated Create calls are marked with it.
	ErrNotCreated = errors.New("linsys: not created")
	// ErrStructural reports a malformed sparsity description
	ErrStructural = errors.New("linsys: malformed sparsity structure")
	// ErrIndex reports a block index outside the local range in an explicit
	// boundary condition call
	ErrIndex = errors.New("linsys: block index out of range")
)

func errAlreadyCreated(what string) error {
	return errors.Mark(errors.Newf("linsys: %s already created, Destroy it first", what), ErrNotCreated)
}

func errShape(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("linsys: "+format, args...), ErrNotCreated)
}
