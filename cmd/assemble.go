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
	"log"
	"os"

	"github.com/cockroachdb/errors"
	perf "github.com/hodgesds/perf-utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/linsys/InputParameters"
	"github.com/notargets/linsys/backend"
	"github.com/notargets/linsys/comm"
	"github.com/notargets/linsys/linsys"
	"github.com/notargets/linsys/partition"
	"github.com/notargets/linsys/types"
)

type AssembleOptions struct {
	SolverType string // overrides the problem file when set
	Dump       bool
	Perf       bool
}

type AssembleResult struct {
	System       *linsys.System
	Solution     []float64
	Part         []int  // rank of every block-row during assembly
	Instructions uint64 // retired during assembly, zero unless counted
}

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble and solve a one dimensional block system described by a YAML file",
	Long: `
Builds the chain graph of the problem file, assembles the Laplacian stencil and
the edge loads through block accumulators, applies the boundary conditions and
solves with the selected backend.

linsys assemble -I problem.yaml --solver cg`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err  error
			ip   *InputParameters.InputParameters
			opts AssembleOptions
		)
		fmt.Println("assemble called")
		defer startProfile()()
		fileName, _ := cmd.Flags().GetString("inputConditionsFile")
		if ip, err = readInput(fileName); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		ip.Print()
		opts.SolverType = viper.GetString("solver")
		opts.Dump, _ = cmd.Flags().GetBool("dump")
		opts.Perf, _ = cmd.Flags().GetBool("perf")
		if _, err = RunAssemble(context.Background(), ip, opts, os.Stdout); err != nil {
			fmt.Printf("error: %+v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the problem")
	AssembleCmd.Flags().StringP("solver", "s", "", "solver type, overrides SolverType of the problem file")
	AssembleCmd.Flags().BoolP("dump", "d", false, "print the assembled system")
	AssembleCmd.Flags().Bool("perf", false, "count CPU instructions retired during assembly")
	_ = viper.BindPFlag("solver", AssembleCmd.Flags().Lookup("solver"))
}

func readInput(fileName string) (ip *InputParameters.InputParameters, err error) {
	if len(fileName) == 0 {
		exampleFile := `
########################################
Title: "Test Case"
SolverType: cg
Nodes: 9
Neq: 1
Ranks: 2
Partitioner: block
Load: 1.
BCs:
  Symmetric:
    0:
      Value: 1.
    8:
      Value: 3.
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, errors.New("must supply an input parameters file (-I, --inputConditionsFile)")
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.InputParameters{}
	err = ip.Parse(data)
	return
}

// problemGraph is the chain of the problem, closed into a ring when Periodic is
// set, plus the couplings of every periodic pair
func problemGraph(ip *InputParameters.InputParameters, bcs []InputParameters.BC) (*comm.Graph, error) {
	var edges []types.EdgeKey
	for i := 0; i+1 < ip.Nodes; i++ {
		edges = append(edges, types.NewEdgeKey([2]int{i, i + 1}))
	}
	if ip.Periodic && ip.Nodes > 2 {
		edges = append(edges, types.NewEdgeKey([2]int{ip.Nodes - 1, 0}))
	}
	for _, bc := range bcs {
		if bc.Kind == types.BC_Periodic {
			edges = append(edges, types.NewEdgeKey([2]int{bc.Node, int(bc.Params["Partner"])}))
		}
	}
	return comm.NewGraphFromEdges(ip.Nodes, edges)
}

// edgeElement fills acc with the stencil of one edge: the unit Laplacian for
// every component and half of the load on each node
func edgeElement(acc *linsys.BlockAccumulator, load float64) {
	var (
		neq = acc.Neq()
		eye = mat.NewDiagDense(neq, nil)
		blk = mat.NewDense(neq, neq, nil)
	)
	acc.Reset(0)
	for k := 0; k < neq; k++ {
		eye.SetDiag(k, 1)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if i == j {
				blk.Scale(1, eye)
			} else {
				blk.Scale(-1, eye)
			}
			acc.SetNodeBlock(i, j, blk)
		}
		for k := 0; k < neq; k++ {
			acc.Rhs.SetVec(i*neq+k, 0.5*load)
		}
	}
}

// chainEdges are the element edges, periodic pairs are constraints and carry none
func chainEdges(ip *InputParameters.InputParameters) [][2]int {
	return chainEdgesOf(ip.Nodes, ip.Periodic)
}

func RunAssemble(ctx context.Context, ip *InputParameters.InputParameters, opts AssembleOptions,
	w io.Writer) (res *AssembleResult, err error) {
	var (
		bcs      []InputParameters.BC
		g        *comm.Graph
		patterns []*comm.Pattern
		neq      = ip.Neq
	)
	if bcs, err = ip.BoundaryConditions(); err != nil {
		return
	}
	if g, err = problemGraph(ip, bcs); err != nil {
		return
	}
	if patterns, err = comm.Decompose(g, make([]int, g.N), 1); err != nil {
		return
	}
	solverType := ip.SolverType
	if opts.SolverType != "" {
		solverType = opts.SolverType
	}
	p := patterns[0]
	sys := linsys.NewSystem(solverType)
	if err = sys.Create(p, neq, p.Connectivity, p.Starts); err != nil {
		return
	}
	res = &AssembleResult{System: sys, Part: make([]int, g.N)}

	assemble := func() error {
		if err := sys.Reset(0); err != nil {
			return err
		}
		if ip.Ranks > 1 {
			return assembleRanks(ctx, ip, g, p, sys, res)
		}
		acc := linsys.NewBlockAccumulator(2, neq)
		edgeElement(acc, ip.Load)
		for _, e := range chainEdges(ip) {
			acc.Indices[0], acc.Indices[1] = e[0], e[1]
			if err := sys.Matrix().AddValues(acc); err != nil {
				return err
			}
			if err := sys.Rhs().AddRhsValues(acc); err != nil {
				return err
			}
		}
		return nil
	}
	if opts.Perf {
		var pv *perf.ProfileValue
		if pv, err = perf.CPUInstructions(assemble); err != nil {
			log.Printf("instruction counting unavailable: %v", err)
			err = assemble()
		} else {
			res.Instructions = pv.Value
			fmt.Fprintf(w, "Assembly retired %d instructions\n", pv.Value)
		}
	} else {
		err = assemble()
	}
	if err != nil {
		return
	}
	if dropped := sys.Matrix().DroppedWrites(); dropped != 0 {
		log.Printf("%d block writes fell outside the sparsity", dropped)
	}

	if err = applyBCs(sys, bcs, neq); err != nil {
		return
	}
	if opts.Dump {
		if err = sys.Print(w); err != nil {
			return
		}
	}

	var solver backend.Solver
	registry := backend.NewDefaultRegistry()
	if solver, err = registry.New(sys.SolverType(), backend.Options{
		Tolerance: ip.Tolerance, MaxIterations: ip.MaxIterations}); err != nil {
		return
	}
	if err = solver.Solve(ctx, sys.Matrix(), sys.Solution(), sys.Rhs()); err != nil {
		return
	}
	if res.Solution, err = sys.Solution().Data(); err != nil {
		return
	}
	fmt.Fprintf(w, "Solution (%s):\n", sys.SolverType())
	err = sys.Solution().Print(w)
	return
}

// assembleRanks spreads the edges over ip.Ranks concurrent ranks, each edge
// assembled by the owner of its first node, sums the ghost loads into their
// owners and gathers every rank's share into the single rank system sys
func assembleRanks(ctx context.Context, ip *InputParameters.InputParameters, g *comm.Graph,
	global *comm.Pattern, sys *linsys.System, res *AssembleResult) (err error) {
	var (
		part     []int
		patterns []*comm.Pattern
		world    *comm.World
		neq      = ip.Neq
	)
	if part, err = partitionChain(g, ip.Ranks, ip.Partitioner == "metis"); err != nil {
		return
	}
	if patterns, err = comm.Decompose(g, part, ip.Ranks); err != nil {
		return
	}
	if world, err = comm.NewWorld(patterns); err != nil {
		return
	}
	copy(res.Part, part)
	var (
		locals = make([]*linsys.System, ip.Ranks)
		bufs   = make([]comm.Buffer, ip.Ranks)
		edges  = chainEdges(ip)
	)
	err = world.Run(ctx, func(ctx context.Context, rank int) error {
		p := patterns[rank]
		local := linsys.NewSystem(sys.SolverType())
		if err := local.Create(p, neq, p.Connectivity, p.Starts); err != nil {
			return err
		}
		if err := local.Reset(0); err != nil {
			return err
		}
		locals[rank] = local
		bufs[rank] = comm.Borrow(local.Rhs().Raw(), neq)
		acc := linsys.NewBlockAccumulator(2, neq)
		edgeElement(acc, ip.Load)
		for _, e := range edges {
			if part[e[0]] != rank {
				continue
			}
			i, _ := p.Local(e[0])
			j, ok := p.Local(e[1])
			if !ok {
				return errors.Newf("rank %d holds no copy of node %d", rank, e[1])
			}
			acc.Indices[0], acc.Indices[1] = i, j
			if err := local.Matrix().AddValues(acc); err != nil {
				return err
			}
			if err := local.Rhs().AddRhsValues(acc); err != nil {
				return err
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
	log.Printf("Assembled %d nodes on %d ranks, %d cut edges", g.N, ip.Ranks, partition.CutEdges(g, part))
	return gatherRanks(patterns, locals, global, sys)
}

// gatherRanks sums the matrix entries of every rank into sys and takes the
// right hand side of each block-row from its owner
func gatherRanks(patterns []*comm.Pattern, locals []*linsys.System, global *comm.Pattern,
	sys *linsys.System) (err error) {
	neq := sys.Matrix().Neq()
	for rank, p := range patterns {
		var (
			rows, cols []int
			vals, rhs  []float64
		)
		scalar := func(row int) int {
			gi, _ := global.Local(p.GlobalID(row / neq))
			return gi*neq + row%neq
		}
		if rows, cols, vals, err = locals[rank].Matrix().Data(); err != nil {
			return
		}
		for n, v := range vals {
			if v == 0 {
				continue
			}
			if err = sys.Matrix().AddValue(scalar(rows[n]), scalar(cols[n]), v); err != nil {
				return
			}
		}
		if rhs, err = locals[rank].Rhs().Data(); err != nil {
			return
		}
		for r, v := range rhs {
			if !p.IsUpdatable(r / neq) {
				continue
			}
			if err = sys.Rhs().SetValue(scalar(r), v); err != nil {
				return
			}
		}
	}
	return
}

// applyBCs ties periodic pairs first, then imposes Dirichlet values
func applyBCs(sys *linsys.System, bcs []InputParameters.BC, neq int) (err error) {
	for _, bc := range bcs {
		if bc.Kind != types.BC_Periodic {
			continue
		}
		if err = sys.Periodicity(bc.Node, int(bc.Params["Partner"])); err != nil {
			return errors.Wrapf(err, "periodic pair %d-%d", bc.Node, int(bc.Params["Partner"]))
		}
	}
	for _, bc := range bcs {
		switch bc.Kind {
		case types.BC_Dirichlet, types.BC_SymmetricDirichlet:
			for k := 0; k < neq; k++ {
				if err = sys.Dirichlet(bc.Node, k, bc.Params["Value"], bc.Kind == types.BC_SymmetricDirichlet); err != nil {
					return errors.Wrapf(err, "%s condition on node %d", bc.Kind, bc.Node)
				}
			}
		}
	}
	return
}
