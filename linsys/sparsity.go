package linsys

import "github.com/cockroachdb/errors"

// Sparsity is the block-level CSR description shared by a Matrix and its
// Vectors. Row i declares the block columns
// connectivity[starts[i]:starts[i+1]]. It is immutable after construction.
type Sparsity struct {
	nBlocks      int
	connectivity []int
	starts       []int
	// addresses maps a block coordinate [i,j] to its position in connectivity
	addresses map[[2]int]int
}

func NewSparsity(nBlocks int, connectivity, starts []int) (sp *Sparsity, err error) {
	if nBlocks < 0 {
		err = errors.Wrapf(ErrStructural, "negative block count %d", nBlocks)
		return
	}
	if len(starts) != nBlocks+1 {
		err = errors.Wrapf(ErrStructural, "have %d starting indices for %d block rows, need %d",
			len(starts), nBlocks, nBlocks+1)
		return
	}
	if starts[0] != 0 {
		err = errors.Wrapf(ErrStructural, "starting indices must begin at 0, have %d", starts[0])
		return
	}
	for i := 0; i < nBlocks; i++ {
		if starts[i+1] < starts[i] {
			err = errors.Wrapf(ErrStructural, "starting indices decrease at row %d: %d > %d",
				i, starts[i], starts[i+1])
			return
		}
	}
	if starts[nBlocks] > len(connectivity) {
		err = errors.Wrapf(ErrStructural, "starting indices reference entry %d of a connectivity of length %d",
			starts[nBlocks], len(connectivity))
		return
	}
	sp = &Sparsity{
		nBlocks:      nBlocks,
		connectivity: append([]int(nil), connectivity[:starts[nBlocks]]...),
		starts:       append([]int(nil), starts...),
		addresses:    make(map[[2]int]int, starts[nBlocks]),
	}
	for i := 0; i < nBlocks; i++ {
		for pos := sp.starts[i]; pos < sp.starts[i+1]; pos++ {
			j := sp.connectivity[pos]
			if j < 0 || j >= nBlocks {
				err = errors.Wrapf(ErrStructural, "row %d references block column %d, valid range is [0,%d)",
					i, j, nBlocks)
				return nil, err
			}
			key := [2]int{i, j}
			if _, dup := sp.addresses[key]; dup {
				err = errors.Wrapf(ErrStructural, "row %d declares block column %d twice", i, j)
				return nil, err
			}
			sp.addresses[key] = pos
		}
	}
	return
}

func (sp *Sparsity) NumBlocks() int { return sp.nBlocks }

// NNZ is the number of declared blocks
func (sp *Sparsity) NNZ() int { return len(sp.connectivity) }

func (sp *Sparsity) RowRange(i int) (lo, hi int) { return sp.starts[i], sp.starts[i+1] }

// Row returns the declared block columns of block row i, the slice must not be modified
func (sp *Sparsity) Row(i int) []int {
	return sp.connectivity[sp.starts[i]:sp.starts[i+1]]
}

// Find returns the position of block (i,j) within the connectivity
func (sp *Sparsity) Find(i, j int) (pos int, ok bool) {
	pos, ok = sp.addresses[[2]int{i, j}]
	return
}
