package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/linsys/comm"
)

func TestBlock(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1, 1, 1}, Block(2, 9))
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, Block(3, 6))
	assert.Equal(t, []int{0, 0, 0}, Block(1, 3))
}

func TestBuildMetisGraph(t *testing.T) {
	g, err := comm.NewChainGraph(4, false)
	require.NoError(t, err)
	xadj, adjncy := buildMetisGraph(g)
	assert.Equal(t, []int32{0, 1, 3, 5, 6}, xadj)
	assert.Equal(t, []int32{1, 0, 2, 1, 3, 2}, adjncy)
}

func TestCutEdges(t *testing.T) {
	g, err := comm.NewChainGraph(6, true)
	require.NoError(t, err)
	assert.Equal(t, 2, CutEdges(g, Block(2, 6)))
	assert.Equal(t, 0, CutEdges(g, Block(1, 6)))
}

func TestMetis(t *testing.T) {
	g, err := comm.NewChainGraph(16, false)
	require.NoError(t, err)

	part, err := Metis(g, DefaultConfig(1))
	require.NoError(t, err)
	assert.Equal(t, make([]int, 16), part)

	_, err = Metis(g, DefaultConfig(0))
	assert.Error(t, err)

	cfg := DefaultConfig(2)
	cfg.Objective = "cut"
	part, err = Metis(g, cfg)
	require.NoError(t, err)
	require.Len(t, part, 16)
	counts := make([]int, 2)
	for _, r := range part {
		require.True(t, r == 0 || r == 1)
		counts[r]++
	}
	assert.InDelta(t, 8, counts[0], 1)
	// A chain split in two balanced pieces only needs one cut
	assert.LessOrEqual(t, CutEdges(g, part), 2)

	// The assignment decomposes into consistent patterns
	patterns, err := comm.Decompose(g, part, 2)
	require.NoError(t, err)
	_, err = comm.NewWorld(patterns)
	require.NoError(t, err)
}
