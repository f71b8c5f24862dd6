package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func generateRandomInteger(min int, max int) int {
	return min + rand.Intn(max-min)
}

func TestPriorityQueue(t *testing.T) {
	pq := NewMinHeap[int32, float64](func(a, b float64) bool { return a < b })
	assert.NotNil(t, pq)

	for i := 0; i < 10000; i++ {
		pq.Insert(NewPriorityQueueNode(float64(generateRandomInteger(0, 10000)), int32(i)))
	}
	assert.Equal(t, 10000, pq.Size())

	prevItem, ok := pq.ExtractMin()
	assert.True(t, ok)
	for i := 1; i < 10000; i++ {
		item, ok := pq.ExtractMin()
		assert.True(t, ok)
		assert.LessOrEqual(t, prevItem.Rank, item.Rank)
		prevItem = item
	}

	_, ok = pq.ExtractMin()
	assert.False(t, ok)
}

func TestPriorityQueueRouteWeight(t *testing.T) {
	pq := NewMinHeap[string, RouteWeight](RouteWeight.Less)

	pq.Insert(NewPriorityQueueNode(RouteWeight{Weight: 10}, "fast"))
	pq.Insert(NewPriorityQueueNode(RouteWeight{Weight: 1, NumPassThroughChanges: 1}, "pass-through"))
	pq.Insert(NewPriorityQueueNode(RouteWeight{Weight: 10, TransitTime: 5}, "transit"))

	min, ok := pq.GetMin()
	assert.True(t, ok)
	assert.Equal(t, "transit", min.Item)

	order := []string{}
	for pq.Size() > 0 {
		n, _ := pq.ExtractMin()
		order = append(order, n.Item)
	}
	assert.Equal(t, []string{"transit", "fast", "pass-through"}, order)
}
