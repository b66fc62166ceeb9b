package linsys

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"

	"github.com/notargets/linsys/comm"
)

func scanFloat(t *testing.T, td *datadriven.TestData, key string) float64 {
	var s string
	td.ScanArgs(t, key, &s)
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}

// parseRows reads one whitespace separated line of integers (or values) per row
func parseRows(t *testing.T, input string) (rows [][]string) {
	for _, line := range strings.Split(strings.TrimSpace(input), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	return
}

func printDense(A *Matrix) string {
	var b strings.Builder
	for i := 0; i < A.Size(); i++ {
		cells := make([]string, A.Size())
		for j := range cells {
			cells[j] = "."
			if _, ok := A.index(i, j); ok {
				v, _ := A.GetValue(i, j)
				cells[j] = formatValue(v)
			}
		}
		fmt.Fprintln(&b, strings.Join(cells, " "))
	}
	return b.String()
}

func TestTransformsDataDriven(t *testing.T) {
	var A *Matrix
	result := func(err error) string {
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		return "ok\n"
	}
	datadriven.RunTest(t, "testdata/transforms", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "create":
			var n, neq int
			td.ScanArgs(t, "blocks", &n)
			td.ScanArgs(t, "neq", &neq)
			var (
				connectivity []int
				starts       = []int{0}
			)
			for _, row := range parseRows(t, td.Input) {
				for _, tok := range row {
					j, err := strconv.Atoi(tok)
					require.NoError(t, err)
					connectivity = append(connectivity, j)
				}
				starts = append(starts, len(connectivity))
			}
			gids, upd := make([]int, n), make([]bool, n)
			for i := range gids {
				gids[i], upd[i] = i, true
			}
			own, err := comm.NewPattern(gids, upd)
			require.NoError(t, err)
			if A != nil {
				A.Destroy()
			}
			A = NewMatrix("dense")
			if err = A.Create(own, neq, connectivity, starts); err != nil {
				return result(err)
			}
			return fmt.Sprintf("%d x %d, %d declared blocks\n", A.Size(), A.Size(), A.Sparsity().NNZ())

		case "reset":
			return result(A.Reset(scanFloat(t, td, "value")))

		case "fill":
			for i, row := range parseRows(t, td.Input) {
				for j, tok := range row {
					if tok == "." {
						continue
					}
					v, err := strconv.ParseFloat(tok, 64)
					require.NoError(t, err)
					if err = A.SetValue(i, j, v); err != nil {
						return result(err)
					}
				}
			}
			return result(nil)

		case "print":
			if !A.IsCreated() {
				return result(ErrNotCreated)
			}
			return printDense(A)

		case "set-row":
			var block, comp int
			td.ScanArgs(t, "block", &block)
			td.ScanArgs(t, "comp", &comp)
			return result(A.SetRow(block, comp, scanFloat(t, td, "diag"), scanFloat(t, td, "offdiag")))

		case "column":
			var block, comp int
			td.ScanArgs(t, "block", &block)
			td.ScanArgs(t, "comp", &comp)
			col, err := A.GetColumnAndReplaceToZero(block, comp, nil)
			if err != nil {
				return result(err)
			}
			cells := make([]string, len(col))
			for i, v := range col {
				cells[i] = formatValue(v)
			}
			return strings.Join(cells, " ") + "\n"

		case "tie":
			var a, b int
			td.ScanArgs(t, "a", &a)
			td.ScanArgs(t, "b", &b)
			return result(A.TieBlockrowPairs(a, b))

		case "destroy":
			A.Destroy()
			return result(nil)

		default:
			return fmt.Sprintf("unknown command: %s\n", td.Cmd)
		}
	})
}
