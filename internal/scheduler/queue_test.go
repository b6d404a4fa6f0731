package scheduler

import (
	"container/heap"
	"testing"
)

func TestPendingQueue_RemoveKeepsOrder(t *testing.T) {
	var q pendingQueue
	items := make([]*WorkItem, 0, 5)
	for i, p := range []int{1, 5, 3, 5, 2} {
		it := &WorkItem{ID: string(rune('a' + i)), Priority: p, seq: uint64(i + 1)}
		items = append(items, it)
		heap.Push(&q, it)
	}
	heap.Remove(&q, items[2].index) // priority 3
	var got []string
	for q.Len() > 0 {
		it := heap.Pop(&q).(*WorkItem)
		if it.index != -1 {
			t.Fatalf("popped item keeps index %d", it.index)
		}
		got = append(got, it.ID)
	}
	want := []string{"b", "d", "e", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
