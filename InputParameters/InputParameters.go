package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/linsys/types"
)

// Parameters obtained from the YAML problem file
type InputParameters struct {
	Title         string                                `yaml:"Title"`
	SolverType    string                                `yaml:"SolverType"`
	Nodes         int                                   `yaml:"Nodes"`
	Neq           int                                   `yaml:"Neq"`
	Ranks         int                                   `yaml:"Ranks"`
	Partitioner   string                                `yaml:"Partitioner"` // "block" or "metis"
	Periodic      bool                                  `yaml:"Periodic"`
	Load          float64                               `yaml:"Load"` // per edge, split evenly between its nodes
	BCs           map[string]map[int]map[string]float64 `yaml:"BCs"`  // First key is BC name/type, second is the node, third is parameter name
	Tolerance     float64                               `yaml:"Tolerance"`
	MaxIterations int                                   `yaml:"MaxIterations"`
}

// BC is one boundary condition read from the BCs section
type BC struct {
	Kind   types.BCFLAG
	Node   int
	Params map[string]float64
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.setDefaults()
	return ip.validate()
}

func (ip *InputParameters) setDefaults() {
	if ip.SolverType == "" {
		ip.SolverType = "dense"
	}
	if ip.Neq == 0 {
		ip.Neq = 1
	}
	if ip.Ranks == 0 {
		ip.Ranks = 1
	}
	if ip.Partitioner == "" {
		ip.Partitioner = "block"
	}
	if ip.Tolerance == 0 {
		ip.Tolerance = 1.e-10
	}
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 1000
	}
}

func (ip *InputParameters) validate() error {
	if ip.Nodes < 2 {
		return fmt.Errorf("need at least two nodes, have %d", ip.Nodes)
	}
	if ip.Neq < 1 || ip.Ranks < 1 {
		return fmt.Errorf("Neq and Ranks must be positive, have %d and %d", ip.Neq, ip.Ranks)
	}
	if ip.Ranks > ip.Nodes {
		return fmt.Errorf("cannot spread %d nodes over %d ranks", ip.Nodes, ip.Ranks)
	}
	if ip.Partitioner != "block" && ip.Partitioner != "metis" {
		return fmt.Errorf("unknown partitioner %q", ip.Partitioner)
	}
	_, err := ip.BoundaryConditions()
	return err
}

// BoundaryConditions lists the BCs section ordered by node, then by kind
func (ip *InputParameters) BoundaryConditions() (bcs []BC, err error) {
	for name, nodes := range ip.BCs {
		var kind types.BCFLAG
		if kind, err = types.NewBCFLAG(name); err != nil {
			return nil, err
		}
		for node, params := range nodes {
			if node < 0 || node >= ip.Nodes {
				return nil, fmt.Errorf("BCs[%s]: node %d outside [0,%d)", name, node, ip.Nodes)
			}
			if kind == types.BC_Periodic {
				partner, ok := params["Partner"]
				if !ok || int(partner) < 0 || int(partner) >= ip.Nodes || int(partner) == node {
					return nil, fmt.Errorf("BCs[%s]: node %d needs a Partner node other than itself", name, node)
				}
			}
			bcs = append(bcs, BC{Kind: kind, Node: node, Params: params})
		}
	}
	sort.Slice(bcs, func(i, j int) bool {
		if bcs[i].Node != bcs[j].Node {
			return bcs[i].Node < bcs[j].Node
		}
		return bcs[i].Kind < bcs[j].Kind
	})
	return
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Solver Type\n", ip.SolverType)
	fmt.Printf("[%d]\t\t\t\t= Nodes\n", ip.Nodes)
	fmt.Printf("[%d]\t\t\t\t= Equations per node\n", ip.Neq)
	fmt.Printf("[%d]\t\t\t\t= Ranks (%s)\n", ip.Ranks, ip.Partitioner)
	fmt.Printf("%8.5f\t\t= Load\n", ip.Load)
	fmt.Printf("[%v]\t\t\t= Periodic\n", ip.Periodic)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
