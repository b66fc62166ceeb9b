package backend

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/edp1096/sparse"

	"github.com/notargets/linsys/linsys"
)

// Markowitz is a direct sparse LU with Markowitz pivoting. Each Solve builds
// and factors a fresh element matrix from the declared entries.
type Markowitz struct{}

func NewMarkowitz(Options) (Solver, error) { return &Markowitz{}, nil }

func (*Markowitz) Solve(ctx context.Context, A *linsys.Matrix, x, b *linsys.Vector) (err error) {
	if err = checkOperands(A, x, b); err != nil {
		return
	}
	var (
		n          = A.Size()
		rows, cols []int
		vals       []float64
	)
	if rows, cols, vals, err = A.Data(); err != nil {
		return
	}
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
	S, err := sparse.Create(int64(n), config)
	if err != nil {
		return errors.Wrap(err, "markowitz: unable to create matrix")
	}
	defer S.Destroy()

	S.Clear()
	// Element indices are 1-based
	for k, val := range vals {
		if val == 0 && rows[k] != cols[k] {
			continue
		}
		S.GetElement(int64(rows[k]+1), int64(cols[k]+1)).Real += val
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if err = S.Factor(); err != nil {
		return errors.Wrap(err, "markowitz: factorization failed")
	}
	rhs := make([]float64, n+1)
	copy(rhs[1:], b.Raw())
	sol, err := S.Solve(rhs)
	if err != nil {
		return errors.Wrap(err, "markowitz: solve failed")
	}
	copy(x.Raw(), sol[1:n+1])
	return
}
