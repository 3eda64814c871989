package dispatch

import (
	"container/heap"
	"time"

	"github.com/jwalitptl/consult-api/internal/model"
)

// queueItem is owned exclusively by the dispatcher's queue from enqueue
// until it is popped by the processing loop.
type queueItem struct {
	prompt     *model.MedicalPrompt
	priority   model.Priority
	timeout    time.Duration
	enqueuedAt time.Time
	result     chan Outcome
	seq        uint64
	index      int
}

// priorityQueue orders items by priority (high before normal before low)
// and FIFO within a priority tier by arrival sequence.
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority.Rank() != pq[j].priority.Rank() {
		return pq[i].priority.Rank() > pq[j].priority.Rank()
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// compile-time check
var _ heap.Interface = (*priorityQueue)(nil)
