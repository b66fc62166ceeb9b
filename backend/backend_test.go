package backend

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/linsys/comm"
	"github.com/notargets/linsys/linsys"
)

// chainSystem assembles the 1D Laplacian on n nodes with x(0)=left and x(n-1)=right
func chainSystem(t *testing.T, n int, solverType string, left, right float64) *linsys.System {
	g, err := comm.NewChainGraph(n, false)
	require.NoError(t, err)
	patterns, err := comm.Decompose(g, make([]int, n), 1)
	require.NoError(t, err)
	p := patterns[0]
	sys := linsys.NewSystem(solverType)
	require.NoError(t, sys.Create(p, 1, p.Connectivity, p.Starts))
	require.NoError(t, sys.Reset(0))
	acc := linsys.NewBlockAccumulator(2, 1)
	acc.Mat.Copy(mat.NewDense(2, 2, []float64{1, -1, -1, 1}))
	for e := 0; e < n-1; e++ {
		acc.Indices[0], acc.Indices[1] = e, e+1
		require.NoError(t, sys.Matrix().AddValues(acc))
	}
	require.NoError(t, sys.Dirichlet(0, 0, left, true))
	require.NoError(t, sys.Dirichlet(n-1, 0, right, true))
	return sys
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"cg", "dense", "markowitz"}, r.Names())

	_, err := r.New("gmres", DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnknownSolver))

	assert.Error(t, r.Register("dense", NewDense))
	assert.Error(t, r.Register("", NewDense))
	require.NoError(t, r.Register("lu", NewDense))
	s, err := r.New("lu", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Dense{}, s)

	_, err = r.New("cg", Options{})
	assert.Error(t, err)

	assert.Empty(t, NewRegistry().Names())
}

func TestSolversOnChain(t *testing.T) {
	var (
		n   = 9
		r   = NewDefaultRegistry()
		ctx = context.Background()
	)
	for _, name := range r.Names() {
		sys := chainSystem(t, n, name, 1, 3)
		solver, err := r.New(sys.SolverType(), DefaultOptions())
		require.NoError(t, err, name)
		require.NoError(t, solver.Solve(ctx, sys.Matrix(), sys.Solution(), sys.Rhs()), name)
		x, err := sys.Solution().Data()
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			assert.InDeltaf(t, 1+2*float64(i)/8, x[i], 1.e-8, "%s: node %d", name, i)
		}
	}
}

func TestSolverErrors(t *testing.T) {
	var (
		ctx = context.Background()
		sys = chainSystem(t, 5, "cg", 0, 1)
	)
	cg, err := NewCG(DefaultOptions())
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = cg.Solve(cancelled, sys.Matrix(), sys.Solution(), sys.Rhs())
	assert.True(t, errors.Is(err, context.Canceled))

	// An iteration budget too small to converge
	short, err := NewCG(Options{Tolerance: 1.e-14, MaxIterations: 1})
	require.NoError(t, err)
	assert.Error(t, short.Solve(ctx, sys.Matrix(), sys.Solution(), sys.Rhs()))

	// Systems holding ghost rows need a distributed solver
	p, err := comm.NewPattern([]int{0, 1}, []bool{true, false})
	require.NoError(t, err)
	ghosted := linsys.NewSystem("dense")
	require.NoError(t, ghosted.Create(p, 1, []int{0, 1, 0, 1}, []int{0, 2, 4}))
	dense, _ := NewDense(Options{})
	err = dense.Solve(ctx, ghosted.Matrix(), ghosted.Solution(), ghosted.Rhs())
	assert.True(t, errors.Is(err, ErrDistributed))

	ghosted.Destroy()
	err = dense.Solve(ctx, ghosted.Matrix(), ghosted.Solution(), ghosted.Rhs())
	assert.True(t, errors.Is(err, linsys.ErrNotCreated))
}
