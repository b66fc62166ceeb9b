package linsys

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	v := NewVector("cg")
	assert.Equal(t, "cg", v.SolverType())
	assert.True(t, errors.Is(v.Reset(0), ErrNotCreated))
	_, err := v.GetValue(0)
	assert.True(t, errors.Is(err, ErrNotCreated))
	assert.Nil(t, v.Raw())

	own := eightBlockOwnership(t)
	require.NoError(t, v.Create(own, 2))
	assert.True(t, v.IsCreated())
	assert.Equal(t, 8, v.BlockSize())
	assert.Equal(t, 16, v.Size())
	assert.Equal(t, 2, v.Neq())
	assert.True(t, errors.Is(v.Create(own, 2), ErrNotCreated))

	require.NoError(t, v.Reset(1))
	// Ghost rows carry no write restriction
	require.NoError(t, v.SetBlockValue(1, 1, 4))
	require.NoError(t, v.AddBlockValue(1, 1, 4))
	val, err := v.GetValue(3)
	require.NoError(t, err)
	assert.Equal(t, 8., val)
	require.NoError(t, v.AddValue(15, 2))
	val, err = v.GetBlockValue(7, 1)
	require.NoError(t, err)
	assert.Equal(t, 3., val)

	// Out of range is a silent miss
	require.NoError(t, v.SetValue(16, 9))
	require.NoError(t, v.SetBlockValue(2, 2, 9))
	require.NoError(t, v.AddBlockValue(-1, 0, 9))
	val, err = v.GetValue(-1)
	require.NoError(t, err)
	assert.Zero(t, val)

	data, err := v.Data()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 8, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 3}, data)
	data[0] = 100
	val, _ = v.GetValue(0)
	assert.Equal(t, 1., val)
	v.Raw()[0] = 100
	val, _ = v.GetValue(0)
	assert.Equal(t, 100., val)

	var buf bytes.Buffer
	require.NoError(t, v.Print(&buf))
	assert.Contains(t, buf.String(), "BLOCK")

	v.Destroy()
	assert.False(t, v.IsCreated())
	assert.True(t, errors.Is(v.SetValue(0, 1), ErrNotCreated))
}

func TestVectorAccumulators(t *testing.T) {
	var (
		neq = 2
		own = eightBlockOwnership(t)
		rhs = NewVector("cg")
		sol = NewVector("cg")
	)
	require.NoError(t, rhs.Create(own, neq))
	require.NoError(t, sol.Create(own, neq))

	acc := NewBlockAccumulator(2, neq)
	acc.Indices = []int{6, 1}
	for i := 0; i < 4; i++ {
		acc.Rhs.SetVec(i, float64(i+1))
		acc.Sol.SetVec(i, float64(-i-1))
	}
	require.NoError(t, rhs.SetRhsValues(acc))
	require.NoError(t, rhs.AddRhsValues(acc))
	require.NoError(t, sol.SetSolValues(acc))
	require.NoError(t, sol.AddSolValues(acc))

	r, _ := rhs.Data()
	s, _ := sol.Data()
	assert.Equal(t, []float64{0, 0, 6, 8, 0, 0, 0, 0, 0, 0, 0, 0, 2, 4, 0, 0}, r)
	assert.Equal(t, []float64{0, 0, -6, -8, 0, 0, 0, 0, 0, 0, 0, 0, -2, -4, 0, 0}, s)

	back := NewBlockAccumulator(3, neq)
	back.Indices = []int{1, 9, 6}
	back.Reset(-1)
	require.NoError(t, rhs.GetRhsValues(back))
	require.NoError(t, sol.GetSolValues(back))
	assert.Equal(t, []float64{6, 8, -1, -1, 2, 4}, back.Rhs.RawVector().Data)
	assert.Equal(t, []float64{-6, -8, -1, -1, -2, -4}, back.Sol.RawVector().Data)

	wrong := NewBlockAccumulator(1, 3)
	assert.True(t, errors.Is(rhs.AddRhsValues(wrong), ErrNotCreated))
}
