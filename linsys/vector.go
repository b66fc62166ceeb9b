package linsys

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// Vector is dense storage for every local block-row, updatable and ghost.
// Scalar access carries no ownership restriction; keeping ghost entries
// consistent across processes is left to the halo exchange.
type Vector struct {
	solverType string
	created    bool
	neq        int
	nBlocks    int
	data       []float64
}

func NewVector(solverType string) *Vector {
	return &Vector{solverType: solverType}
}

func (v *Vector) Create(own RowOwnership, neq int) error {
	if v.created {
		return errAlreadyCreated("vector")
	}
	if own == nil {
		return errors.Wrap(ErrStructural, "no row ownership supplied")
	}
	if neq < 1 {
		return errors.Wrapf(ErrStructural, "number of equations per block must be positive, have %d", neq)
	}
	v.neq = neq
	v.nBlocks = own.Size()
	v.data = make([]float64, v.nBlocks*neq)
	v.created = true
	return nil
}

func (v *Vector) Destroy() {
	v.created = false
	v.data = nil
	v.neq, v.nBlocks = 0, 0
}

func (v *Vector) IsCreated() bool    { return v.created }
func (v *Vector) SolverType() string { return v.solverType }
func (v *Vector) Neq() int           { return v.neq }
func (v *Vector) BlockSize() int     { return v.nBlocks }
func (v *Vector) Size() int          { return len(v.data) }

// Raw is the backing storage, shared with the vector. It is nil when the vector is not created.
func (v *Vector) Raw() []float64 { return v.data }

func (v *Vector) check() error {
	if !v.created {
		return ErrNotCreated
	}
	return nil
}

func (v *Vector) Reset(value float64) error {
	if err := v.check(); err != nil {
		return err
	}
	fill(v.data, value)
	return nil
}

func (v *Vector) inRange(row int) bool { return row >= 0 && row < len(v.data) }

func (v *Vector) GetValue(row int) (value float64, err error) {
	if err = v.check(); err != nil {
		return
	}
	if v.inRange(row) {
		value = v.data[row]
	}
	return
}

func (v *Vector) SetValue(row int, value float64) error {
	if err := v.check(); err != nil {
		return err
	}
	if v.inRange(row) {
		v.data[row] = value
	}
	return nil
}

func (v *Vector) AddValue(row int, value float64) error {
	if err := v.check(); err != nil {
		return err
	}
	if v.inRange(row) {
		v.data[row] += value
	}
	return nil
}

func (v *Vector) blockRow(blockRow, comp int) int {
	if comp < 0 || comp >= v.neq || blockRow < 0 {
		return -1
	}
	return blockRow*v.neq + comp
}

func (v *Vector) GetBlockValue(blockRow, comp int) (float64, error) {
	return v.GetValue(v.blockRow(blockRow, comp))
}

func (v *Vector) SetBlockValue(blockRow, comp int, value float64) error {
	return v.SetValue(v.blockRow(blockRow, comp), value)
}

func (v *Vector) AddBlockValue(blockRow, comp int, value float64) error {
	return v.AddValue(v.blockRow(blockRow, comp), value)
}

func (v *Vector) checkAccumulator(acc *BlockAccumulator) error {
	if err := v.check(); err != nil {
		return err
	}
	if acc.Neq() != v.neq {
		return errShape("accumulator has %d equations per block, vector has %d", acc.Neq(), v.neq)
	}
	return nil
}

func (v *Vector) scatter(acc *BlockAccumulator, src *mat.VecDense, add bool) error {
	if err := v.checkAccumulator(acc); err != nil {
		return err
	}
	for i := range acc.Indices {
		for k := 0; k < v.neq; k++ {
			row := v.blockRow(acc.Indices[i], k)
			if !v.inRange(row) {
				continue
			}
			if add {
				v.data[row] += src.AtVec(i*v.neq + k)
			} else {
				v.data[row] = src.AtVec(i*v.neq + k)
			}
		}
	}
	return nil
}

func (v *Vector) gather(acc *BlockAccumulator, dst *mat.VecDense) error {
	if err := v.checkAccumulator(acc); err != nil {
		return err
	}
	for i := range acc.Indices {
		for k := 0; k < v.neq; k++ {
			row := v.blockRow(acc.Indices[i], k)
			if !v.inRange(row) {
				continue
			}
			dst.SetVec(i*v.neq+k, v.data[row])
		}
	}
	return nil
}

// SetRhsValues writes acc.Rhs at the rows addressed by acc.Indices
func (v *Vector) SetRhsValues(acc *BlockAccumulator) error { return v.scatter(acc, acc.Rhs, false) }
func (v *Vector) AddRhsValues(acc *BlockAccumulator) error { return v.scatter(acc, acc.Rhs, true) }
func (v *Vector) GetRhsValues(acc *BlockAccumulator) error { return v.gather(acc, acc.Rhs) }

// SetSolValues writes acc.Sol at the rows addressed by acc.Indices
func (v *Vector) SetSolValues(acc *BlockAccumulator) error { return v.scatter(acc, acc.Sol, false) }
func (v *Vector) AddSolValues(acc *BlockAccumulator) error { return v.scatter(acc, acc.Sol, true) }
func (v *Vector) GetSolValues(acc *BlockAccumulator) error { return v.gather(acc, acc.Sol) }
