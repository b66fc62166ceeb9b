package types

import (
	"fmt"
	"strings"
)

//go:generate stringer -type=BCFLAG

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dirichlet
	BC_SymmetricDirichlet // Dirichlet row and column elimination, keeps the operator symmetric
	BC_Periodic
)

var BCNameMap = map[string]BCFLAG{
	"none":                BC_None,
	"dirichlet":           BC_Dirichlet,
	"symmetric":           BC_SymmetricDirichlet,
	"symmetric-dirichlet": BC_SymmetricDirichlet,
	"periodic":            BC_Periodic,
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_None:
		return "None"
	case BC_Dirichlet:
		return "Dirichlet"
	case BC_SymmetricDirichlet:
		return "SymmetricDirichlet"
	case BC_Periodic:
		return "Periodic"
	}
	return fmt.Sprintf("BCFLAG(%d)", uint8(bc))
}

// NewBCFLAG parses a condition name like "Dirichlet" or "periodic-2", the
// trailing label after a dash is ignored
func NewBCFLAG(token string) (bf BCFLAG, err error) {
	name := strings.ToLower(strings.TrimSpace(token))
	if ind := strings.Index(name, "-"); ind > 0 {
		if _, ok := BCNameMap[name]; !ok {
			name = name[:ind]
		}
	}
	var ok bool
	if bf, ok = BCNameMap[name]; !ok {
		err = fmt.Errorf("unknown boundary condition %q", token)
	}
	return
}

// Ownership of a block-row from the perspective of the local process
type Ownership uint8

const (
	Updatable Ownership = iota // authored by the local process
	Ghost                      // mirrored from another process
)

func (o Ownership) String() string {
	if o == Ghost {
		return "Ghost"
	}
	return "Updatable"
}
