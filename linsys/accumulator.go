package linsys

import (
	"gonum.org/v1/gonum/mat"
)

/*
BlockAccumulator stages the dense contribution of one element together with the
block indices it couples. Local dense position (i,comp) maps to the absolute
scalar position Indices[i]*neq+comp, so the accumulator carries no notion of
node order beyond the caller's Indices.

	Mat: (n*neq) x (n*neq) operator contribution
	Rhs: n*neq right hand side contribution
	Sol: n*neq solution values
*/
type BlockAccumulator struct {
	Indices []int
	Mat     *mat.Dense
	Rhs     *mat.VecDense
	Sol     *mat.VecDense
	neq     int
}

func NewBlockAccumulator(n, neq int) (acc *BlockAccumulator) {
	acc = &BlockAccumulator{}
	acc.Resize(n, neq)
	return
}

// Resize allocates storage for n blocks of neq components. Contents are zero.
func (acc *BlockAccumulator) Resize(n, neq int) {
	if n < 1 || neq < 1 {
		panic("block accumulator needs at least one block and one equation")
	}
	var (
		nn = n * neq
	)
	acc.neq = neq
	acc.Indices = make([]int, n)
	acc.Mat = mat.NewDense(nn, nn, nil)
	acc.Rhs = mat.NewVecDense(nn, nil)
	acc.Sol = mat.NewVecDense(nn, nil)
}

// Reset fills Mat, Rhs and Sol with value, Indices are kept
func (acc *BlockAccumulator) Reset(value float64) {
	fill(acc.Mat.RawMatrix().Data, value)
	fill(acc.Rhs.RawVector().Data, value)
	fill(acc.Sol.RawVector().Data, value)
}

func (acc *BlockAccumulator) Size() int { return len(acc.Indices) }
func (acc *BlockAccumulator) Neq() int  { return acc.neq }

func (acc *BlockAccumulator) GlobalIndex(i, comp int) int {
	return acc.Indices[i]*acc.neq + comp
}

// NodeBlock is a view of the neq x neq coupling of local node i to local node j
func (acc *BlockAccumulator) NodeBlock(i, j int) mat.Matrix {
	var (
		neq = acc.neq
	)
	return acc.Mat.Slice(i*neq, (i+1)*neq, j*neq, (j+1)*neq)
}

func (acc *BlockAccumulator) SetNodeBlock(i, j int, blk mat.Matrix) {
	acc.eachNodeEntry(i, j, blk, func(r, c int, v float64) { acc.Mat.Set(r, c, v) })
}

func (acc *BlockAccumulator) AddNodeBlock(i, j int, blk mat.Matrix) {
	acc.eachNodeEntry(i, j, blk, func(r, c int, v float64) { acc.Mat.Set(r, c, acc.Mat.At(r, c)+v) })
}

func (acc *BlockAccumulator) eachNodeEntry(i, j int, blk mat.Matrix, f func(r, c int, v float64)) {
	var (
		neq    = acc.neq
		nr, nc = blk.Dims()
	)
	if nr != neq || nc != neq {
		panic("node block must be neq x neq")
	}
	for r := 0; r < neq; r++ {
		for c := 0; c < neq; c++ {
			f(i*neq+r, j*neq+c, blk.At(r, c))
		}
	}
}

func fill(data []float64, value float64) {
	for i := range data {
		data[i] = value
	}
}
