package partition

import (
	"fmt"
	"log"

	metis "github.com/notargets/go-metis"

	"github.com/notargets/linsys/comm"
	"github.com/notargets/linsys/utils"
)

// Config holds configuration for graph partitioning
type Config struct {
	NumPartitions   int32
	ImbalanceFactor float32 // e.g., 1.05 for 5% imbalance
	Objective       string  // "cut" or "vol"
}

// DefaultConfig returns the default partitioning configuration
func DefaultConfig(nparts int32) *Config {
	return &Config{
		NumPartitions:   nparts,
		ImbalanceFactor: 1.05,
		Objective:       "vol", // minimize communication volume
	}
}

// Block assigns n block-rows to nparts ranks in contiguous, balanced runs
func Block(nparts, n int) (part []int) {
	var (
		pm = utils.NewPartitionMap(nparts, n)
	)
	part = make([]int, n)
	for bn := 0; bn < nparts; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		for _, k := range utils.NewRange(kMin, kMax-1) {
			part[k] = bn
		}
	}
	return
}

// Metis assigns the vertices of g to cfg.NumPartitions ranks with a k-way
// partition of the coupling graph
func Metis(g *comm.Graph, cfg *Config) (part []int, err error) {
	if cfg.NumPartitions < 1 {
		err = fmt.Errorf("number of partitions must be positive, have %d", cfg.NumPartitions)
		return
	}
	part = make([]int, g.N)
	if cfg.NumPartitions == 1 {
		return
	}
	log.Printf("Partitioning graph with %d vertices into %d parts", g.N, cfg.NumPartitions)

	xadj, adjncy := buildMetisGraph(g)

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if cfg.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{cfg.ImbalanceFactor}

	mpart, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, nil, nil,
		cfg.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	for i := range part {
		part[i] = int(mpart[i])
	}
	analyzePartition(g, part, int(cfg.NumPartitions), objval)
	return
}

// buildMetisGraph converts the coupling graph to METIS format, which forbids self loops
func buildMetisGraph(g *comm.Graph) (xadj, adjncy []int32) {
	xadj = make([]int32, g.N+1)
	adjncy = make([]int32, 0, len(g.Adjncy)-g.N)
	for i := 0; i < g.N; i++ {
		for _, j := range g.Neighbors(i) {
			if j != i {
				adjncy = append(adjncy, int32(j))
			}
		}
		xadj[i+1] = int32(len(adjncy))
	}
	return
}

// CutEdges counts couplings between vertices assigned to different ranks
func CutEdges(g *comm.Graph, part []int) (cut int) {
	for i := 0; i < g.N; i++ {
		for _, j := range g.Neighbors(i) {
			if j > i && part[i] != part[j] {
				cut++
			}
		}
	}
	return
}

func analyzePartition(g *comm.Graph, part []int, nparts int, objval int32) {
	loads := make([]int, nparts)
	for _, r := range part {
		loads[r]++
	}
	minLoad, maxLoad := g.N, 0
	for _, l := range loads {
		minLoad = min(minLoad, l)
		maxLoad = max(maxLoad, l)
	}
	avgLoad := float64(g.N) / float64(nparts)
	log.Printf("Partition Analysis:")
	log.Printf("  Objective value: %d", objval)
	log.Printf("  Cut edges: %d", CutEdges(g, part))
	log.Printf("  Load imbalance: %.2f%%", (float64(maxLoad)/avgLoad-1)*100)
	log.Printf("  Load range: [%d, %d], avg: %.1f", minLoad, maxLoad, avgLoad)
}
