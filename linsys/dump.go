package linsys

import (
	"fmt"
	"io"
	"strconv"

	"github.com/james-bowman/sparse"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"
)

// Data exports every declared entry as parallel (row, col, value) arrays,
// ordered by scalar row then by declaration order within the row
func (m *Matrix) Data() (rows, cols []int, vals []float64, err error) {
	if err = m.check(); err != nil {
		return
	}
	var (
		neq = m.neq
		nnz = len(m.data)
	)
	rows, cols, vals = make([]int, 0, nnz), make([]int, 0, nnz), make([]float64, 0, nnz)
	for brow := 0; brow < m.sp.NumBlocks(); brow++ {
		lo, hi := m.sp.RowRange(brow)
		for r := 0; r < neq; r++ {
			for pos := lo; pos < hi; pos++ {
				bcol := m.sp.connectivity[pos]
				for c := 0; c < neq; c++ {
					rows = append(rows, brow*neq+r)
					cols = append(cols, bcol*neq+c)
					vals = append(vals, m.data[pos*m.bsize+r*neq+c])
				}
			}
		}
	}
	return
}

// ToDense expands the matrix, undeclared entries are zero
func (m *Matrix) ToDense() (A *mat.Dense, err error) {
	var (
		rows, cols []int
		vals       []float64
	)
	if rows, cols, vals, err = m.Data(); err != nil {
		return
	}
	if m.Size() == 0 {
		err = errShape("matrix has no rows")
		return
	}
	A = mat.NewDense(m.Size(), m.Size(), nil)
	for i, val := range vals {
		A.Set(rows[i], cols[i], val)
	}
	return
}

// ToCSR exports the declared sparsity in compressed sparse row format
func (m *Matrix) ToCSR() (A *sparse.CSR, err error) {
	var (
		rows, cols []int
		vals       []float64
	)
	if rows, cols, vals, err = m.Data(); err != nil {
		return
	}
	if m.Size() == 0 {
		err = errShape("matrix has no rows")
		return
	}
	A = sparse.NewCOO(m.Size(), m.Size(), rows, cols, vals).ToCSR()
	return
}

func (m *Matrix) Print(w io.Writer) (err error) {
	var (
		rows, cols []int
		vals       []float64
	)
	if rows, cols, vals, err = m.Data(); err != nil {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"row", "col", "value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, val := range vals {
		table.Append([]string{strconv.Itoa(rows[i]), strconv.Itoa(cols[i]), formatValue(val)})
	}
	table.SetCaption(true, fmt.Sprintf("%d x %d, %d declared entries, solver %q",
		m.Size(), m.Size(), len(vals), m.solverType))
	table.Render()
	return
}

// Data returns a copy of every entry, updatable and ghost
func (v *Vector) Data() (vals []float64, err error) {
	if err = v.check(); err != nil {
		return
	}
	vals = append([]float64(nil), v.data...)
	return
}

func (v *Vector) Print(w io.Writer) (err error) {
	if err = v.check(); err != nil {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"row", "block", "comp", "value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for row, val := range v.data {
		table.Append([]string{strconv.Itoa(row), strconv.Itoa(row / v.neq), strconv.Itoa(row % v.neq),
			formatValue(val)})
	}
	table.Render()
	return
}

func formatValue(val float64) string {
	return strconv.FormatFloat(val, 'g', 8, 64)
}
