package backend

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/linsys/linsys"
)

// CG is the conjugate gradient method over the compressed sparse row form of
// the operator. It requires a symmetric positive definite operator, e.g. one
// with Dirichlet conditions imposed with symmetry preserved.
type CG struct {
	opts Options
}

func NewCG(opts Options) (Solver, error) {
	if opts.Tolerance <= 0 || opts.MaxIterations < 1 {
		return nil, errors.Newf("cg: need a positive tolerance and iteration count, have %g and %d",
			opts.Tolerance, opts.MaxIterations)
	}
	return &CG{opts: opts}, nil
}

func (cg *CG) Solve(ctx context.Context, A *linsys.Matrix, x, b *linsys.Vector) (err error) {
	if err = checkOperands(A, x, b); err != nil {
		return
	}
	var (
		csr *sparse.CSR
		n   = A.Size()
		xx  = x.Raw()
		bb  = b.Raw()
		r   = make([]float64, n)
		p   = make([]float64, n)
		Ap  = make([]float64, n)
	)
	if csr, err = A.ToCSR(); err != nil {
		return
	}
	mulVec := func(dst, v []float64) {
		for i := range dst {
			dst[i] = 0
		}
		csr.MulVecTo(dst, false, v)
	}
	// r = b - A x
	mulVec(Ap, xx)
	floats.SubTo(r, bb, Ap)
	copy(p, r)
	var (
		rr    = floats.Dot(r, r)
		bNorm = floats.Norm(bb, 2)
		tol   = cg.opts.Tolerance
	)
	if bNorm == 0 {
		bNorm = 1
	}
	for iter := 0; iter < cg.opts.MaxIterations; iter++ {
		if rnorm := floats.Norm(r, 2); rnorm <= tol*bNorm {
			log.Printf("cg: converged in %d iterations, residual %.3e", iter, rnorm/bNorm)
			return nil
		}
		if err = ctx.Err(); err != nil {
			return
		}
		mulVec(Ap, p)
		pAp := floats.Dot(p, Ap)
		if pAp <= 0 {
			return errors.Newf("cg: operator is not positive definite, p'Ap = %g at iteration %d", pAp, iter)
		}
		alpha := rr / pAp
		floats.AddScaled(xx, alpha, p)
		floats.AddScaled(r, -alpha, Ap)
		rrNew := floats.Dot(r, r)
		beta := rrNew / rr
		rr = rrNew
		// p = r + beta p
		floats.Scale(beta, p)
		floats.Add(p, r)
	}
	return errors.Newf("cg: no convergence after %d iterations, residual %.3e",
		cg.opts.MaxIterations, floats.Norm(r, 2)/bNorm)
}
