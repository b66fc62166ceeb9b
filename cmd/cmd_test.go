package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/linsys/InputParameters"
	"github.com/notargets/linsys/backend"
)

func parseInput(t *testing.T, text string) *InputParameters.InputParameters {
	ip := &InputParameters.InputParameters{}
	require.NoError(t, ip.Parse([]byte(text)))
	return ip
}

func TestRunAssembleChain(t *testing.T) {
	ip := parseInput(t, `
Title: Loaded chain
Nodes: 9
Load: 1.
BCs:
  Symmetric:
    0:
      Value: 1.
    8:
      Value: 3.
`)
	for _, solverType := range []string{"dense", "cg", "markowitz"} {
		res, err := RunAssemble(context.Background(), ip, AssembleOptions{SolverType: solverType}, io.Discard)
		require.NoError(t, err, solverType)
		assert.Equal(t, solverType, res.System.SolverType())
		require.Len(t, res.Solution, 9)
		for i, x := range res.Solution {
			fi := float64(i)
			assert.InDeltaf(t, 1+fi/4+fi*(8-fi)/2, x, 1.e-8, "%s: node %d", solverType, i)
		}
	}
}

func TestRunAssembleBlocks(t *testing.T) {
	ip := parseInput(t, `
Title: Two components
SolverType: markowitz
Nodes: 5
Neq: 2
BCs:
  Dirichlet:
    0:
      Value: 1.
    4:
      Value: 3.
`)
	var buf bytes.Buffer
	res, err := RunAssemble(context.Background(), ip, AssembleOptions{Dump: true}, &buf)
	require.NoError(t, err)
	require.Len(t, res.Solution, 10)
	for i := 0; i < 5; i++ {
		for k := 0; k < 2; k++ {
			assert.InDelta(t, 1+float64(i)/2, res.Solution[2*i+k], 1.e-10)
		}
	}
	assert.Contains(t, buf.String(), `System: solver "markowitz", 5 blocks (5 updatable), 2 equations per block`)
	assert.Zero(t, res.System.Matrix().DroppedWrites())
}

func TestRunAssemblePeriodic(t *testing.T) {
	// Node 4 is tied to node 3, the merged row carries the load of both
	ip := parseInput(t, `
Nodes: 5
Load: 1.
BCs:
  Dirichlet:
    0:
      Value: 1.
  Periodic:
    3:
      Partner: 4
`)
	res, err := RunAssemble(context.Background(), ip, AssembleOptions{}, io.Discard)
	require.NoError(t, err)
	expected := []float64{1, 4.5, 7, 8.5, 8.5}
	for i := range expected {
		assert.InDelta(t, expected[i], res.Solution[i], 1.e-10)
	}
}

func TestRunAssembleRanks(t *testing.T) {
	chain := `
Nodes: 9
Load: 1.
Ranks: 3
Partitioner: %s
BCs:
  Symmetric:
    0:
      Value: 1.
    8:
      Value: 3.
`
	for _, partitioner := range []string{"block", "metis"} {
		ip := parseInput(t, fmt.Sprintf(chain, partitioner))
		res, err := RunAssemble(context.Background(), ip, AssembleOptions{}, io.Discard)
		require.NoError(t, err, partitioner)
		assert.Equal(t, 9, res.System.Matrix().BlockRowSize())
		counts := make([]int, 3)
		for _, r := range res.Part {
			counts[r]++
		}
		for r, c := range counts {
			assert.Positive(t, c, "%s: rank %d owns nothing", partitioner, r)
		}
		for i, x := range res.Solution {
			fi := float64(i)
			assert.InDeltaf(t, 1+fi/4+fi*(8-fi)/2, x, 1.e-8, "%s: node %d", partitioner, i)
		}
	}
	ip := parseInput(t, fmt.Sprintf(chain, "block"))
	res, err := RunAssemble(context.Background(), ip, AssembleOptions{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 2, 2, 2}, res.Part)

	// Spreading the periodic block problem over ranks gives the single rank system
	ring := `
Nodes: 6
Neq: 2
Load: 2.
Periodic: true
Ranks: %d
BCs:
  Dirichlet:
    0:
      Value: 1.
  Periodic:
    2:
      Partner: 5
`
	one, err := RunAssemble(context.Background(), parseInput(t, fmt.Sprintf(ring, 1)), AssembleOptions{}, io.Discard)
	require.NoError(t, err)
	two, err := RunAssemble(context.Background(), parseInput(t, fmt.Sprintf(ring, 2)), AssembleOptions{}, io.Discard)
	require.NoError(t, err)
	A1, err := one.System.Matrix().ToDense()
	require.NoError(t, err)
	A2, err := two.System.Matrix().ToDense()
	require.NoError(t, err)
	assert.True(t, mat.Equal(A1, A2))
	b1, _ := one.System.Rhs().Data()
	b2, _ := two.System.Rhs().Data()
	assert.Equal(t, b1, b2)
	assert.InDeltaSlice(t, one.Solution, two.Solution, 1.e-10)
}

func TestRunAssembleErrors(t *testing.T) {
	ip := parseInput(t, "Nodes: 3\n")
	_, err := RunAssemble(context.Background(), ip, AssembleOptions{SolverType: "gmres"}, io.Discard)
	assert.True(t, errors.Is(err, backend.ErrUnknownSolver))

	_, err = readInput("")
	assert.Error(t, err)
	_, err = readInput("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestRunPartition(t *testing.T) {
	var buf bytes.Buffer
	res, err := RunPartition(context.Background(), PartitionOptions{Nodes: 9, Ranks: 2, Load: 1}, &buf)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1, 1, 1}, res.Part)
	assert.Equal(t, []float64{0.5, 1, 1, 1, 1, 1, 1, 1, 0.5}, res.Load)
	assert.Equal(t, []float64{1, 2, 2, 2, 2, 2, 2, 2, 1}, res.Diagonal)
	assert.Contains(t, buf.String(), "rank 1: 4 updatable, 1 ghost")
	assert.Contains(t, buf.String(), "1 cut edges")

	res, err = RunPartition(context.Background(), PartitionOptions{Nodes: 9, Ranks: 3, Periodic: true, Load: 2},
		io.Discard)
	require.NoError(t, err)
	for gid := 0; gid < 9; gid++ {
		assert.Equal(t, 2., res.Load[gid], "gid %d", gid)
		assert.Equal(t, 2., res.Diagonal[gid], "gid %d", gid)
	}

	_, err = RunPartition(context.Background(), PartitionOptions{Nodes: 2, Ranks: 3}, io.Discard)
	assert.Error(t, err)
}
