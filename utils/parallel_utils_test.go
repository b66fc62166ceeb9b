package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Test PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				kMin, kMax := pm.GetBucketRange(np)
				maxK := kMax - kMin
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 10000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
}

func TestMailBox(t *testing.T) {
	{ // DynBuffer reuse keeps appending after a reset
		db := NewDynBuffer[int](2)
		db.Add(1)
		db.Add(2)
		assert.Equal(t, []int{1, 2}, db.Cells())
		db.Reset()
		assert.True(t, db.IsEmpty())
		db.Add(3)
		assert.Equal(t, 1, db.Len())
		assert.Equal(t, []int{3}, db.Cells())
	}
	{ // Two rounds of all-to-all exchange between three ranks
		mb := NewMailBox[[2]int](3)
		for round := 0; round < 2; round++ {
			for rank := 0; rank < 3; rank++ {
				for target := 0; target < 3; target++ {
					if target != rank {
						mb.PostMessage(rank, target, [2]int{rank, round})
					}
				}
			}
			for rank := 0; rank < 3; rank++ {
				mb.DeliverMyMessages(rank)
			}
			for rank := 0; rank < 3; rank++ {
				msgs := mb.ReceiveMyMessages(rank)
				assert.Len(t, msgs, 2)
				for _, msg := range msgs {
					assert.NotEqual(t, rank, msg[0])
					assert.Equal(t, round, msg[1])
				}
				mb.ClearMyMessages(rank)
			}
		}
		// Nothing posted means nothing delivered
		mb.DeliverMyMessages(1)
		assert.Empty(t, mb.ReceiveMyMessages(0))
		assert.Panics(t, func() { mb.PostMessage(0, 3, [2]int{}) })
	}
}
