package scheduler

import "container/heap"

// pendingQueue orders items by priority (descending) then by sequence
// number (ascending), which keeps equal priorities FIFO.
type pendingQueue []*WorkItem

var _ heap.Interface = (*pendingQueue)(nil)

func (q pendingQueue) Len() int { return len(q) }

func (q pendingQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q pendingQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *pendingQueue) Push(x any) {
	it := x.(*WorkItem)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *pendingQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}
