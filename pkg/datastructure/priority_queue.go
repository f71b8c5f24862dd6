package datastructure

type PriorityQueueNode[T any, R any] struct {
	Rank R
	Item T
}

func NewPriorityQueueNode[T any, R any](rank R, item T) PriorityQueueNode[T, R] {
	return PriorityQueueNode[T, R]{Rank: rank, Item: item}
}

// MinHeap binary heap priorityqueue ordered by less on Rank. Stale entries are not removed,
// callers skip them on ExtractMin.
type MinHeap[T any, R any] struct {
	heap []PriorityQueueNode[T, R]
	less func(a, b R) bool
}

func NewMinHeap[T any, R any](less func(a, b R) bool) *MinHeap[T, R] {
	return &MinHeap[T, R]{
		heap: make([]PriorityQueueNode[T, R], 0),
		less: less,
	}
}

func (h *MinHeap[T, R]) parent(index int) int {
	return (index - 1) / 2
}

// heapifyUp selama parent lebih besar, swap dengan parent. O(logN).
func (h *MinHeap[T, R]) heapifyUp(index int) {
	for index != 0 && h.less(h.heap[index].Rank, h.heap[h.parent(index)].Rank) {
		h.heap[index], h.heap[h.parent(index)] = h.heap[h.parent(index)], h.heap[index]
		index = h.parent(index)
	}
}

// heapifyDown swap dengan child terkecil sampai heap property terpenuhi. O(logN).
func (h *MinHeap[T, R]) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.less(h.heap[left].Rank, h.heap[smallest].Rank) {
			smallest = left
		}
		if right < len(h.heap) && h.less(h.heap[right].Rank, h.heap[smallest].Rank) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.heap[index], h.heap[smallest] = h.heap[smallest], h.heap[index]
		index = smallest
	}
}

func (h *MinHeap[T, R]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T, R]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T, R]) GetMin() (PriorityQueueNode[T, R], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T, R]{}, false
	}
	return h.heap[0], true
}

func (h *MinHeap[T, R]) Insert(key PriorityQueueNode[T, R]) {
	h.heap = append(h.heap, key)
	h.heapifyUp(h.Size() - 1)
}

func (h *MinHeap[T, R]) ExtractMin() (PriorityQueueNode[T, R], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T, R]{}, false
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	h.heapifyDown(0)
	return root, true
}
