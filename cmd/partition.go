/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/notargets/linsys/comm"
	"github.com/notargets/linsys/linsys"
	"github.com/notargets/linsys/partition"
)

type PartitionOptions struct {
	Nodes    int
	Ranks    int
	Metis    bool
	Periodic bool
	Load     float64
}

// PartitionResult is gathered from the owners of each block-row, indexed by global id
type PartitionResult struct {
	Part     []int
	Load     []float64
	Diagonal []float64
}

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Decompose a chain over ranks and assemble it concurrently",
	Long: `
Assigns the block-rows of a chain to ranks, builds each rank's ownership
pattern, assembles every rank's share of the system concurrently and sums the
ghost contributions into their owners.

linsys partition -n 9 -p 2 --metis`,
	Run: func(cmd *cobra.Command, args []string) {
		var opts PartitionOptions
		fmt.Println("partition called")
		defer startProfile()()
		opts.Nodes, _ = cmd.Flags().GetInt("nodes")
		opts.Ranks, _ = cmd.Flags().GetInt("ranks")
		opts.Metis, _ = cmd.Flags().GetBool("metis")
		opts.Periodic, _ = cmd.Flags().GetBool("periodic")
		opts.Load, _ = cmd.Flags().GetFloat64("load")
		if _, err := RunPartition(context.Background(), opts, os.Stdout); err != nil {
			fmt.Printf("error: %+v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	PartitionCmd.Flags().IntP("nodes", "n", 9, "number of chain nodes (block-rows)")
	PartitionCmd.Flags().IntP("ranks", "p", 2, "number of ranks")
	PartitionCmd.Flags().Bool("metis", false, "partition with METIS instead of contiguous blocks")
	PartitionCmd.Flags().Bool("periodic", false, "close the chain into a ring")
	PartitionCmd.Flags().Float64("load", 1, "load per edge")
}

func RunPartition(ctx context.Context, opts PartitionOptions, w io.Writer) (res *PartitionResult, err error) {
	var (
		g        *comm.Graph
		part     []int
		patterns []*comm.Pattern
		world    *comm.World
	)
	if opts.Nodes < 2 || opts.Ranks < 1 || opts.Ranks > opts.Nodes {
		return nil, errors.Newf("cannot spread %d nodes over %d ranks", opts.Nodes, opts.Ranks)
	}
	if g, err = comm.NewChainGraph(opts.Nodes, opts.Periodic); err != nil {
		return
	}
	if part, err = partitionChain(g, opts.Ranks, opts.Metis); err != nil {
		return
	}
	if patterns, err = comm.Decompose(g, part, opts.Ranks); err != nil {
		return
	}
	if world, err = comm.NewWorld(patterns); err != nil {
		return
	}

	var (
		systems = make([]*linsys.System, opts.Ranks)
		bufs    = make([]comm.Buffer, opts.Ranks)
	)
	edges := chainEdgesOf(opts.Nodes, opts.Periodic)
	err = world.Run(ctx, func(ctx context.Context, rank int) error {
		p := patterns[rank]
		sys := linsys.NewSystem("dense")
		if err := sys.Create(p, 1, p.Connectivity, p.Starts); err != nil {
			return err
		}
		if err := sys.Reset(0); err != nil {
			return err
		}
		systems[rank] = sys
		bufs[rank] = comm.Borrow(sys.Rhs().Raw(), 1)
		acc := linsys.NewBlockAccumulator(2, 1)
		for _, e := range edges {
			i, iok := p.Local(e[0])
			j, jok := p.Local(e[1])
			if !iok || !jok {
				continue
			}
			acc.Reset(0)
			acc.Indices[0], acc.Indices[1] = i, j
			acc.Mat.Set(0, 0, 1)
			acc.Mat.Set(1, 1, 1)
			acc.Mat.Set(0, 1, -1)
			acc.Mat.Set(1, 0, -1)
			// Edges between local blocks complete the owned rows of the matrix. The
			// load of an edge is assembled once, by the owner of its first node.
			if err := sys.Matrix().AddValues(acc); err != nil {
				return err
			}
			if p.IsUpdatable(i) {
				acc.Rhs.SetVec(0, 0.5*opts.Load)
				acc.Rhs.SetVec(1, 0.5*opts.Load)
				if err := sys.Rhs().AddRhsValues(acc); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return
	}
	if err = world.Accumulate(ctx, bufs); err != nil {
		return
	}

	res = &PartitionResult{
		Part:     part,
		Load:     make([]float64, opts.Nodes),
		Diagonal: make([]float64, opts.Nodes),
	}
	for rank, p := range patterns {
		sys := systems[rank]
		diag := make([]float64, p.Size())
		if err = sys.Matrix().GetDiagonal(diag); err != nil {
			return
		}
		load, _ := sys.Rhs().Data()
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"local", "gid", "owner", "ownership", "load", "diagonal"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for i, gid := range p.GIDs {
			table.Append([]string{strconv.Itoa(i), strconv.Itoa(gid), strconv.Itoa(p.Owner[i]),
				p.Ownership(i).String(), strconv.FormatFloat(load[i], 'g', 8, 64),
				strconv.FormatFloat(diag[i], 'g', 8, 64)})
			if p.IsUpdatable(i) {
				res.Load[gid] = load[i]
				res.Diagonal[gid] = diag[i]
			}
		}
		table.SetCaption(true, fmt.Sprintf("rank %d: %d updatable, %d ghost", rank, p.NumUpdatable(),
			p.Size()-p.NumUpdatable()))
		table.Render()
	}
	fmt.Fprintf(w, "%d cut edges\n", partition.CutEdges(g, part))
	return
}

// partitionChain assigns the block-rows of g to ranks, contiguously or with METIS
func partitionChain(g *comm.Graph, ranks int, metis bool) ([]int, error) {
	if metis {
		return partition.Metis(g, partition.DefaultConfig(int32(ranks)))
	}
	return partition.Block(ranks, g.N), nil
}

func chainEdgesOf(n int, periodic bool) (edges [][2]int) {
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	if periodic && n > 2 {
		edges = append(edges, [2]int{n - 1, 0})
	}
	return
}
