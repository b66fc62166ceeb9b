package backend

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/notargets/linsys/linsys"
)

// Solver solves A x = b for an assembled system. x carries the initial guess
// on entry where the method uses one.
type Solver interface {
	Solve(ctx context.Context, A *linsys.Matrix, x, b *linsys.Vector) error
}

type Options struct {
	Tolerance     float64 // relative residual for iterative methods
	MaxIterations int
}

func DefaultOptions() Options {
	return Options{Tolerance: 1.e-10, MaxIterations: 1000}
}

type Factory func(opts Options) (Solver, error)

var (
	ErrUnknownSolver = errors.New("backend: unknown solver type")
	// ErrDistributed is returned by the reference solvers for systems holding ghost rows
	ErrDistributed = errors.New("backend: system has ghost rows, a distributed solver is required")
)

// Registry maps a solver type, as carried by Matrix.SolverType, to a factory
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry holds the reference solvers: dense, cg and markowitz
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, f := range map[string]Factory{
		"dense":     NewDense,
		"cg":        NewCG,
		"markowitz": NewMarkowitz,
	} {
		if err := r.Register(name, f); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return errors.New("backend: a solver needs a name and a factory")
	}
	if _, present := r.factories[name]; present {
		return errors.Newf("backend: solver type %q is already registered", name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) New(name string, opts Options) (Solver, error) {
	f, present := r.factories[name]
	if !present {
		return nil, errors.Wrapf(ErrUnknownSolver, "%q, have %v", name, r.Names())
	}
	return f(opts)
}

func (r *Registry) Names() (names []string) {
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func checkOperands(A *linsys.Matrix, x, b *linsys.Vector) error {
	if !A.IsCreated() || !x.IsCreated() || !b.IsCreated() {
		return linsys.ErrNotCreated
	}
	if x.Size() != A.Size() || b.Size() != A.Size() {
		return errors.Newf("backend: matrix has %d rows, solution %d and right hand side %d",
			A.Size(), x.Size(), b.Size())
	}
	if A.BlockRowSize() != A.BlockColSize() {
		return errors.Wrapf(ErrDistributed, "%d of %d block rows are updatable",
			A.BlockRowSize(), A.BlockColSize())
	}
	return nil
}
