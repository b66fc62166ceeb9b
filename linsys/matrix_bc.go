package linsys

import "github.com/cockroachdb/errors"

func (m *Matrix) checkBlockComponent(block, comp int) error {
	if err := m.check(); err != nil {
		return err
	}
	if block < 0 || block >= m.sp.NumBlocks() {
		return errors.Wrapf(ErrIndex, "block %d, valid range is [0,%d)", block, m.sp.NumBlocks())
	}
	if comp < 0 || comp >= m.neq {
		return errors.Wrapf(ErrIndex, "component %d, valid range is [0,%d)", comp, m.neq)
	}
	return nil
}

// SetRow imposes a Dirichlet row: every declared entry of row
// blockRow*neq+comp becomes offdiag, except the diagonal which becomes diag
func (m *Matrix) SetRow(blockRow, comp int, diag, offdiag float64) error {
	if err := m.checkBlockComponent(blockRow, comp); err != nil {
		return err
	}
	var (
		neq    = m.neq
		lo, hi = m.sp.RowRange(blockRow)
	)
	for pos := lo; pos < hi; pos++ {
		bcol := m.sp.connectivity[pos]
		base := pos*m.bsize + comp*neq
		for c := 0; c < neq; c++ {
			if bcol == blockRow && c == comp {
				m.data[base+c] = diag
			} else {
				m.data[base+c] = offdiag
			}
		}
	}
	return nil
}

/*
GetColumnAndReplaceToZero returns, for every scalar row i, the value of the
declared entry (i, blockCol*neq+comp), zero where the entry is not declared,
and then zeroes those entries in place. dst is reused when large enough.

Subtracting value*column from the right hand side before SetRow keeps the
Dirichlet-eliminated operator symmetric.
*/
func (m *Matrix) GetColumnAndReplaceToZero(blockCol, comp int, dst []float64) ([]float64, error) {
	if err := m.checkBlockComponent(blockCol, comp); err != nil {
		return dst, err
	}
	var (
		neq  = m.neq
		size = m.Size()
	)
	if cap(dst) < size {
		dst = make([]float64, size)
	} else {
		dst = dst[:size]
		fill(dst, 0)
	}
	for brow := 0; brow < m.sp.NumBlocks(); brow++ {
		pos, ok := m.sp.Find(brow, blockCol)
		if !ok {
			continue
		}
		for r := 0; r < neq; r++ {
			idx := pos*m.bsize + r*neq + comp
			dst[brow*neq+r] = m.data[idx]
			m.data[idx] = 0
		}
	}
	return dst, nil
}

/*
TieBlockrowPairs couples two block-rows that must carry the same solution.
For every component k:

	row (blockA,k): each declared column outside blockB receives the sum of the
	    blockA and blockB rows at that column, columns of blockB are zeroed
	row (blockB,k): x(blockB,k) - x(blockA,k) = 0

Contributions shared by both rows have to be halved by the caller before they
are assembled, the merge only sums.
*/
func (m *Matrix) TieBlockrowPairs(blockA, blockB int) error {
	if err := m.checkBlockComponent(blockA, 0); err != nil {
		return err
	}
	if err := m.checkBlockComponent(blockB, 0); err != nil {
		return err
	}
	if blockA == blockB {
		return errors.Wrapf(ErrIndex, "cannot tie block %d to itself", blockA)
	}
	var (
		neq = m.neq
	)
	posBB, okBB := m.sp.Find(blockB, blockB)
	posBA, okBA := m.sp.Find(blockB, blockA)
	if !okBB || !okBA {
		return errors.Wrapf(ErrStructural, "block row %d must declare block columns %d and %d to be tied",
			blockB, blockB, blockA)
	}
	lo, hi := m.sp.RowRange(blockA)
	for pos := lo; pos < hi; pos++ {
		bcol := m.sp.connectivity[pos]
		base := pos * m.bsize
		if bcol == blockB {
			fill(m.data[base:base+m.bsize], 0)
			continue
		}
		posB, ok := m.sp.Find(blockB, bcol)
		if !ok {
			continue
		}
		baseB := posB * m.bsize
		for k := 0; k < m.bsize; k++ {
			m.data[base+k] += m.data[baseB+k]
		}
	}
	lo, hi = m.sp.RowRange(blockB)
	fill(m.data[lo*m.bsize:hi*m.bsize], 0)
	for k := 0; k < neq; k++ {
		m.data[posBB*m.bsize+k*neq+k] = 1
		m.data[posBA*m.bsize+k*neq+k] = -1
	}
	return nil
}
