package linsys

import (
	"fmt"
	"io"
)

/*
System binds one Matrix and two Vectors (solution and right hand side) to one
sparsity structure and one row ownership. The solver type is a label forwarded
to whatever backend solves the system, nothing here branches on it.

Typical use, once per linear-system lifetime:

	sys := NewSystem("cg")
	sys.Create(own, neq, connectivity, starts)
	loop:
		sys.Reset(0)
		sys.AddValues(acc) // per element
		sys.Dirichlet(...) / sys.Periodicity(...)
		<synchronize ghosts, solve with the backend selected by sys.SolverType()>
*/
type System struct {
	solverType string
	created    bool
	mat        *Matrix
	sol, rhs   *Vector
	column     []float64 // scratch for symmetric Dirichlet elimination
}

func NewSystem(solverType string) *System {
	return &System{
		solverType: solverType,
		mat:        NewMatrix(solverType),
		sol:        NewVector(solverType),
		rhs:        NewVector(solverType),
	}
}

func (s *System) Create(own RowOwnership, neq int, connectivity, starts []int) (err error) {
	switch {
	case s.created:
		return errAlreadyCreated("system")
	case s.mat.IsCreated():
		return errAlreadyCreated("system matrix")
	case s.sol.IsCreated():
		return errAlreadyCreated("system solution")
	case s.rhs.IsCreated():
		return errAlreadyCreated("system right hand side")
	}
	var sp *Sparsity
	if sp, err = newSparsityFor(own, neq, connectivity, starts); err != nil {
		return
	}
	s.mat.createFrom(own, neq, sp)
	if err = s.sol.Create(own, neq); err != nil {
		s.mat.Destroy()
		return
	}
	if err = s.rhs.Create(own, neq); err != nil {
		s.mat.Destroy()
		s.sol.Destroy()
		return
	}
	s.created = true
	return
}

func (s *System) Destroy() {
	s.mat.Destroy()
	s.sol.Destroy()
	s.rhs.Destroy()
	s.column = nil
	s.created = false
}

func (s *System) IsCreated() bool    { return s.created }
func (s *System) SolverType() string { return s.solverType }

// Matrix, Solution and Rhs are usable while the system is created, their
// operations return ErrNotCreated otherwise
func (s *System) Matrix() *Matrix   { return s.mat }
func (s *System) Solution() *Vector { return s.sol }
func (s *System) Rhs() *Vector      { return s.rhs }

func (s *System) check() error {
	if !s.created {
		return ErrNotCreated
	}
	return nil
}

// Reset sets matrix, solution and right hand side to value
func (s *System) Reset(value float64) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if err = s.mat.Reset(value); err != nil {
		return
	}
	if err = s.sol.Reset(value); err != nil {
		return
	}
	return s.rhs.Reset(value)
}

// SetValues writes acc.Mat, acc.Rhs and acc.Sol into the matrix, rhs and solution
func (s *System) SetValues(acc *BlockAccumulator) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if err = s.mat.SetValues(acc); err != nil {
		return
	}
	if err = s.rhs.SetRhsValues(acc); err != nil {
		return
	}
	return s.sol.SetSolValues(acc)
}

// AddValues adds acc.Mat, acc.Rhs and acc.Sol into the matrix, rhs and solution
func (s *System) AddValues(acc *BlockAccumulator) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if err = s.mat.AddValues(acc); err != nil {
		return
	}
	if err = s.rhs.AddRhsValues(acc); err != nil {
		return
	}
	return s.sol.AddSolValues(acc)
}

// GetValues reads the matrix, rhs and solution entries addressed by acc
func (s *System) GetValues(acc *BlockAccumulator) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if err = s.mat.GetValues(acc); err != nil {
		return
	}
	if err = s.rhs.GetRhsValues(acc); err != nil {
		return
	}
	return s.sol.GetSolValues(acc)
}

/*
Dirichlet imposes x(blockRow,comp) = value. With preserveSymmetry the column is
eliminated too and its contribution moved to the right hand side, so the
operator stays symmetric.
*/
func (s *System) Dirichlet(blockRow, comp int, value float64, preserveSymmetry bool) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if preserveSymmetry {
		if s.column, err = s.mat.GetColumnAndReplaceToZero(blockRow, comp, s.column); err != nil {
			return
		}
		rhs := s.rhs.Raw()
		for i, val := range s.column {
			if val != 0 {
				rhs[i] -= val * value
			}
		}
	}
	if err = s.mat.SetRow(blockRow, comp, 1, 0); err != nil {
		return
	}
	if err = s.sol.SetBlockValue(blockRow, comp, value); err != nil {
		return
	}
	return s.rhs.SetBlockValue(blockRow, comp, value)
}

// Periodicity ties blockB to blockA: the equations of blockB are merged into
// blockA and blockB is constrained to the solution of blockA
func (s *System) Periodicity(blockA, blockB int) (err error) {
	if err = s.check(); err != nil {
		return
	}
	if err = s.mat.TieBlockrowPairs(blockA, blockB); err != nil {
		return
	}
	neq := s.mat.Neq()
	rhs := s.rhs.Raw()
	for k := 0; k < neq; k++ {
		rhs[blockA*neq+k] += rhs[blockB*neq+k]
		rhs[blockB*neq+k] = 0
	}
	return
}

func (s *System) Print(w io.Writer) (err error) {
	if err = s.check(); err != nil {
		return
	}
	fmt.Fprintf(w, "System: solver %q, %d blocks (%d updatable), %d equations per block\n",
		s.solverType, s.mat.BlockColSize(), s.mat.BlockRowSize(), s.mat.Neq())
	fmt.Fprintln(w, "Matrix:")
	if err = s.mat.Print(w); err != nil {
		return
	}
	fmt.Fprintln(w, "Solution:")
	if err = s.sol.Print(w); err != nil {
		return
	}
	fmt.Fprintln(w, "Rhs:")
	return s.rhs.Print(w)
}
