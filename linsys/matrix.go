package linsys

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// RowOwnership is supplied by the row-ownership provider. For every local
// block index in [0,Size()) it gives a stable global id and whether the local
// process is the authoritative writer of that block-row.
type RowOwnership interface {
	Size() int
	GlobalID(i int) int
	IsUpdatable(i int) bool
}

/*
Matrix is a block-sparse operator over the local block-rows (updatable and
ghost). Every declared (blockrow, blockcol) pair of the sparsity owns one
contiguous neq x neq row-major block of storage.

Scalar, block and accumulator writes to pairs absent from the sparsity are
dropped without error, reads of those pairs give zero (scalar) or leave the
caller's storage untouched (block, accumulator).
*/
type Matrix struct {
	solverType string
	created    bool
	neq        int
	bsize      int // neq*neq
	sp         *Sparsity
	updatable  []bool
	nUpdatable int
	data       []float64
	dropped    uint64
}

func NewMatrix(solverType string) *Matrix {
	return &Matrix{solverType: solverType}
}

func (m *Matrix) Create(own RowOwnership, neq int, connectivity, starts []int) (err error) {
	if m.created {
		return errAlreadyCreated("matrix")
	}
	var sp *Sparsity
	if sp, err = newSparsityFor(own, neq, connectivity, starts); err != nil {
		return
	}
	m.createFrom(own, neq, sp)
	return
}

func newSparsityFor(own RowOwnership, neq int, connectivity, starts []int) (*Sparsity, error) {
	if own == nil {
		return nil, errors.Wrap(ErrStructural, "no row ownership supplied")
	}
	if neq < 1 {
		return nil, errors.Wrapf(ErrStructural, "number of equations per block must be positive, have %d", neq)
	}
	return NewSparsity(own.Size(), connectivity, starts)
}

func (m *Matrix) createFrom(own RowOwnership, neq int, sp *Sparsity) {
	var (
		n = sp.NumBlocks()
	)
	m.neq = neq
	m.bsize = neq * neq
	m.sp = sp
	m.updatable = make([]bool, n)
	m.nUpdatable = 0
	for i := 0; i < n; i++ {
		if own.IsUpdatable(i) {
			m.updatable[i] = true
			m.nUpdatable++
		}
	}
	m.data = make([]float64, sp.NNZ()*m.bsize)
	m.dropped = 0
	m.created = true
}

func (m *Matrix) Destroy() {
	m.created = false
	m.sp = nil
	m.updatable = nil
	m.data = nil
	m.neq, m.bsize, m.nUpdatable = 0, 0, 0
}

func (m *Matrix) IsCreated() bool    { return m.created }
func (m *Matrix) SolverType() string { return m.solverType }
func (m *Matrix) Neq() int           { return m.neq }

// BlockRowSize is the number of block-rows authored by the local process
func (m *Matrix) BlockRowSize() int { return m.nUpdatable }

// BlockColSize is the number of local blocks, updatable and ghost
func (m *Matrix) BlockColSize() int {
	if !m.created {
		return 0
	}
	return m.sp.NumBlocks()
}

// Size is the number of scalar rows (and columns)
func (m *Matrix) Size() int { return m.BlockColSize() * m.neq }

func (m *Matrix) Sparsity() *Sparsity { return m.sp }

func (m *Matrix) IsUpdatable(blockRow int) bool {
	return m.created && blockRow >= 0 && blockRow < len(m.updatable) && m.updatable[blockRow]
}

// DroppedWrites counts writes discarded because their position was not
// declared in the sparsity
func (m *Matrix) DroppedWrites() uint64 { return m.dropped }

func (m *Matrix) check() error {
	if !m.created {
		return ErrNotCreated
	}
	return nil
}

// Reset sets every declared entry, including ghost rows, to value
func (m *Matrix) Reset(value float64) error {
	if err := m.check(); err != nil {
		return err
	}
	fill(m.data, value)
	return nil
}

func (m *Matrix) checkDiagonal(d []float64) error {
	if err := m.check(); err != nil {
		return err
	}
	if len(d) != m.Size() {
		return errShape("diagonal has length %d, matrix has %d rows", len(d), m.Size())
	}
	return nil
}

// SetDiagonal writes d on the diagonal of updatable rows only, ghost rows keep their values
func (m *Matrix) SetDiagonal(d []float64) error {
	return m.eachDiagonal(d, true, func(idx int, v float64) { m.data[idx] = v })
}

// AddDiagonal adds d to the diagonal of updatable rows only
func (m *Matrix) AddDiagonal(d []float64) error {
	return m.eachDiagonal(d, true, func(idx int, v float64) { m.data[idx] += v })
}

// GetDiagonal reads the locally stored diagonal of every row into d
func (m *Matrix) GetDiagonal(d []float64) error {
	if err := m.checkDiagonal(d); err != nil {
		return err
	}
	fill(d, 0)
	return m.eachDiagonal(d, false, func(idx int, _ float64) {})
}

func (m *Matrix) eachDiagonal(d []float64, updatableOnly bool, f func(idx int, v float64)) error {
	if err := m.checkDiagonal(d); err != nil {
		return err
	}
	var (
		neq = m.neq
	)
	for i := 0; i < m.sp.NumBlocks(); i++ {
		if updatableOnly && !m.updatable[i] {
			continue
		}
		pos, ok := m.sp.Find(i, i)
		if !ok {
			continue
		}
		for k := 0; k < neq; k++ {
			idx := pos*m.bsize + k*neq + k
			if updatableOnly {
				f(idx, d[i*neq+k])
			} else {
				d[i*neq+k] = m.data[idx]
			}
		}
	}
	return nil
}

// index locates absolute scalar position (row,col) in storage
func (m *Matrix) index(row, col int) (idx int, ok bool) {
	var (
		size = m.Size()
	)
	if row < 0 || col < 0 || row >= size || col >= size {
		return
	}
	var (
		brow, r = row / m.neq, row % m.neq
		bcol, c = col / m.neq, col % m.neq
		pos     int
	)
	if pos, ok = m.sp.Find(brow, bcol); !ok {
		return
	}
	idx = pos*m.bsize + r*m.neq + c
	return
}

func (m *Matrix) blockPos(brow, bcol int) (pos int, ok bool) {
	var (
		n = m.sp.NumBlocks()
	)
	if brow < 0 || bcol < 0 || brow >= n || bcol >= n {
		return
	}
	return m.sp.Find(brow, bcol)
}

func (m *Matrix) GetValue(row, col int) (value float64, err error) {
	if err = m.check(); err != nil {
		return
	}
	if idx, ok := m.index(row, col); ok {
		value = m.data[idx]
	}
	return
}

func (m *Matrix) SetValue(row, col int, value float64) error {
	if err := m.check(); err != nil {
		return err
	}
	if idx, ok := m.index(row, col); ok {
		m.data[idx] = value
	} else {
		m.dropped++
	}
	return nil
}

func (m *Matrix) AddValue(row, col int, value float64) error {
	if err := m.check(); err != nil {
		return err
	}
	if idx, ok := m.index(row, col); ok {
		m.data[idx] += value
	} else {
		m.dropped++
	}
	return nil
}

func (m *Matrix) checkBlockDims(nr, nc int) error {
	if nr != m.neq || nc != m.neq {
		return errShape("block is %dx%d, matrix blocks are %dx%d", nr, nc, m.neq, m.neq)
	}
	return nil
}

// GetBlock copies block (brow,bcol) into dst and reports whether it is declared.
// An undeclared block leaves dst untouched.
func (m *Matrix) GetBlock(brow, bcol int, dst *mat.Dense) (found bool, err error) {
	if err = m.check(); err != nil {
		return
	}
	if err = m.checkBlockDims(dst.Dims()); err != nil {
		return
	}
	var pos int
	if pos, found = m.blockPos(brow, bcol); !found {
		return
	}
	for r := 0; r < m.neq; r++ {
		for c := 0; c < m.neq; c++ {
			dst.Set(r, c, m.data[pos*m.bsize+r*m.neq+c])
		}
	}
	return
}

func (m *Matrix) SetBlock(brow, bcol int, src mat.Matrix) error {
	return m.eachBlockEntry(brow, bcol, src, func(idx int, v float64) { m.data[idx] = v })
}

func (m *Matrix) AddBlock(brow, bcol int, src mat.Matrix) error {
	return m.eachBlockEntry(brow, bcol, src, func(idx int, v float64) { m.data[idx] += v })
}

func (m *Matrix) eachBlockEntry(brow, bcol int, src mat.Matrix, f func(idx int, v float64)) error {
	if err := m.check(); err != nil {
		return err
	}
	if err := m.checkBlockDims(src.Dims()); err != nil {
		return err
	}
	pos, ok := m.blockPos(brow, bcol)
	if !ok {
		m.dropped++
		return nil
	}
	for r := 0; r < m.neq; r++ {
		for c := 0; c < m.neq; c++ {
			f(pos*m.bsize+r*m.neq+c, src.At(r, c))
		}
	}
	return nil
}

func (m *Matrix) checkAccumulator(acc *BlockAccumulator) error {
	if err := m.check(); err != nil {
		return err
	}
	if acc.Neq() != m.neq {
		return errShape("accumulator has %d equations per block, matrix has %d", acc.Neq(), m.neq)
	}
	return nil
}

// SetValues scatters acc.Mat into the matrix using acc.Indices
func (m *Matrix) SetValues(acc *BlockAccumulator) error {
	return m.scatter(acc, func(idx int, v float64) { m.data[idx] = v })
}

// AddValues adds acc.Mat into the matrix using acc.Indices
func (m *Matrix) AddValues(acc *BlockAccumulator) error {
	return m.scatter(acc, func(idx int, v float64) { m.data[idx] += v })
}

// GetValues gathers the declared blocks addressed by acc.Indices into acc.Mat,
// entries of undeclared blocks keep their previous value
func (m *Matrix) GetValues(acc *BlockAccumulator) error {
	if err := m.checkAccumulator(acc); err != nil {
		return err
	}
	var (
		neq = m.neq
		n   = acc.Size()
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pos, ok := m.blockPos(acc.Indices[i], acc.Indices[j])
			if !ok {
				continue
			}
			base := pos * m.bsize
			for r := 0; r < neq; r++ {
				for c := 0; c < neq; c++ {
					acc.Mat.Set(i*neq+r, j*neq+c, m.data[base+r*neq+c])
				}
			}
		}
	}
	return nil
}

func (m *Matrix) scatter(acc *BlockAccumulator, f func(idx int, v float64)) error {
	if err := m.checkAccumulator(acc); err != nil {
		return err
	}
	var (
		neq = m.neq
		n   = acc.Size()
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pos, ok := m.blockPos(acc.Indices[i], acc.Indices[j])
			if !ok {
				m.dropped++
				continue
			}
			base := pos * m.bsize
			for r := 0; r < neq; r++ {
				for c := 0; c < neq; c++ {
					f(base+r*neq+c, acc.Mat.At(i*neq+r, j*neq+c))
				}
			}
		}
	}
	return nil
}
