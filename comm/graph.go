package comm

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/notargets/linsys/types"
)

// Graph is the global block coupling in CSR form. Every vertex couples to
// itself, so row i of Adjncy always contains i.
type Graph struct {
	N      int
	Xadj   []int // Xadj[i]:Xadj[i+1] indexes the neighbors of vertex i
	Adjncy []int
}

// NewGraphFromEdges builds the coupling graph of n vertices from an unordered
// edge list. Repeated edges and loops are folded into the diagonal.
func NewGraphFromEdges(n int, edges []types.EdgeKey) (g *Graph, err error) {
	if n < 1 {
		err = errors.Newf("graph needs at least one vertex, have %d", n)
		return
	}
	var (
		seen      = make(map[types.EdgeKey]struct{}, len(edges))
		neighbors = make([][]int, n)
	)
	for i := 0; i < n; i++ {
		neighbors[i] = append(neighbors[i], i)
	}
	for _, ek := range edges {
		if ek.IsLoop() {
			continue
		}
		if _, dup := seen[ek]; dup {
			continue
		}
		seen[ek] = struct{}{}
		verts := ek.GetVertices(false)
		if verts[1] >= n {
			err = errors.Newf("edge [%d,%d] references a vertex outside [0,%d)", verts[0], verts[1], n)
			return
		}
		neighbors[verts[0]] = append(neighbors[verts[0]], verts[1])
		neighbors[verts[1]] = append(neighbors[verts[1]], verts[0])
	}
	g = &Graph{N: n, Xadj: make([]int, n+1)}
	for i, row := range neighbors {
		sort.Ints(row)
		g.Adjncy = append(g.Adjncy, row...)
		g.Xadj[i+1] = len(g.Adjncy)
	}
	return
}

// NewChainGraph couples vertex i to i-1 and i+1. A periodic chain also couples
// the two ends.
func NewChainGraph(n int, periodic bool) (*Graph, error) {
	var edges []types.EdgeKey
	for i := 0; i+1 < n; i++ {
		edges = append(edges, types.NewEdgeKey([2]int{i, i + 1}))
	}
	if periodic && n > 2 {
		edges = append(edges, types.NewEdgeKey([2]int{n - 1, 0}))
	}
	return NewGraphFromEdges(n, edges)
}

func (g *Graph) Neighbors(i int) []int { return g.Adjncy[g.Xadj[i]:g.Xadj[i+1]] }

// NumEdges counts each undirected coupling once, the diagonal excluded
func (g *Graph) NumEdges() int { return (len(g.Adjncy) - g.N) / 2 }
