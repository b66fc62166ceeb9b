package backend

import (
	"context"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/linsys/linsys"
)

type Dense struct{}

func NewDense(Options) (Solver, error) { return &Dense{}, nil }

// Solve factors the expanded operator with partial pivoting LU
func (*Dense) Solve(ctx context.Context, A *linsys.Matrix, x, b *linsys.Vector) (err error) {
	if err = checkOperands(A, x, b); err != nil {
		return
	}
	var (
		D  *mat.Dense
		lu mat.LU
		n  = A.Size()
	)
	if D, err = A.ToDense(); err != nil {
		return
	}
	lu.Factorize(D)
	if err = ctx.Err(); err != nil {
		return
	}
	X := mat.NewVecDense(n, x.Raw())
	if err = lu.SolveVecTo(X, false, mat.NewVecDense(n, b.Raw())); err != nil {
		return errors.Wrap(err, "dense LU solve")
	}
	return
}
