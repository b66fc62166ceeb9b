package comm

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/notargets/linsys/types"
)

/*
Pattern is the row ownership of one rank: the local blocks it stores, their
global ids, which of them the rank authors, and the local block sparsity in
CSR form (Connectivity, Starts) ready to hand to a Matrix or System.

Local blocks are numbered owned first, then ghosts, each group in ascending
global id.
*/
type Pattern struct {
	Rank         int
	GIDs         []int
	Updatable    []bool
	Owner        []int // owning rank per local block
	Connectivity []int
	Starts       []int
	local        map[int]int
	nUpdatable   int
}

// NewPattern describes a single rank holding gids, with no ghosts unless
// updatable marks some of them false. The sparsity is left empty.
func NewPattern(gids []int, updatable []bool) (p *Pattern, err error) {
	if len(gids) != len(updatable) {
		err = errors.Newf("have %d global ids and %d ownership flags", len(gids), len(updatable))
		return
	}
	p = &Pattern{
		GIDs:      append([]int(nil), gids...),
		Updatable: append([]bool(nil), updatable...),
		Owner:     make([]int, len(gids)),
		Starts:    make([]int, len(gids)+1),
		local:     make(map[int]int, len(gids)),
	}
	for i, gid := range gids {
		if _, dup := p.local[gid]; dup {
			err = errors.Newf("global id %d appears twice", gid)
			return nil, err
		}
		p.local[gid] = i
		if updatable[i] {
			p.nUpdatable++
		} else {
			p.Owner[i] = -1
		}
	}
	return
}

func (p *Pattern) Size() int              { return len(p.GIDs) }
func (p *Pattern) GlobalID(i int) int     { return p.GIDs[i] }
func (p *Pattern) IsUpdatable(i int) bool { return p.Updatable[i] }
func (p *Pattern) NumUpdatable() int      { return p.nUpdatable }

func (p *Pattern) Ownership(i int) types.Ownership {
	if p.Updatable[i] {
		return types.Updatable
	}
	return types.Ghost
}

// Local returns the local block index of a global id
func (p *Pattern) Local(gid int) (i int, ok bool) {
	i, ok = p.local[gid]
	return
}

// Restrict sets the local sparsity to the couplings of g between blocks held by
// this pattern. Columns are local indices in ascending order.
func (p *Pattern) Restrict(g *Graph) error {
	p.Connectivity = p.Connectivity[:0]
	p.Starts = make([]int, p.Size()+1)
	for i, gid := range p.GIDs {
		if gid < 0 || gid >= g.N {
			return errors.Newf("global id %d is not a vertex of a graph of %d", gid, g.N)
		}
		var row []int
		for _, nbr := range g.Neighbors(gid) {
			if j, ok := p.local[nbr]; ok {
				row = append(row, j)
			}
		}
		sort.Ints(row)
		p.Connectivity = append(p.Connectivity, row...)
		p.Starts[i+1] = len(p.Connectivity)
	}
	return nil
}

// Decompose builds one Pattern per rank from a global graph and a block-row to
// rank assignment. Each rank holds its owned blocks plus every block coupled to
// them as a ghost.
func Decompose(g *Graph, part []int, nparts int) (patterns []*Pattern, err error) {
	if len(part) != g.N {
		err = errors.Newf("partition has %d entries for a graph of %d vertices", len(part), g.N)
		return
	}
	owned := make([][]int, nparts)
	for gid, r := range part {
		if r < 0 || r >= nparts {
			err = errors.Newf("vertex %d is assigned to rank %d, valid range is [0,%d)", gid, r, nparts)
			return
		}
		owned[r] = append(owned[r], gid)
	}
	patterns = make([]*Pattern, nparts)
	for r := 0; r < nparts; r++ {
		var (
			ghostSet = make(map[int]struct{})
			ghosts   []int
		)
		for _, gid := range owned[r] {
			for _, nbr := range g.Neighbors(gid) {
				if part[nbr] == r {
					continue
				}
				if _, ok := ghostSet[nbr]; !ok {
					ghostSet[nbr] = struct{}{}
					ghosts = append(ghosts, nbr)
				}
			}
		}
		sort.Ints(ghosts)
		var (
			gids      = append(append([]int(nil), owned[r]...), ghosts...)
			updatable = make([]bool, len(gids))
			p         *Pattern
		)
		for i := range owned[r] {
			updatable[i] = true
		}
		if p, err = NewPattern(gids, updatable); err != nil {
			return nil, err
		}
		p.Rank = r
		for i, gid := range gids {
			p.Owner[i] = part[gid]
		}
		if err = p.Restrict(g); err != nil {
			return nil, err
		}
		patterns[r] = p
	}
	return
}
