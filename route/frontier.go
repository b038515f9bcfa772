package route

import (
	"container/heap"

	"navmesh-planner/geom"
)

// frontier abstracts the open set: a LIFO stack for breadth-style expansion,
// a priority queue for the weighted strategies.
type frontier interface {
	push(*PathNode)
	pop() *PathNode
	empty() bool
}

// stackFrontier is the unordered frontier used by the unweighted strategy.
type stackFrontier struct {
	nodes []*PathNode
}

func (s *stackFrontier) push(n *PathNode) { s.nodes = append(s.nodes, n) }

func (s *stackFrontier) pop() *PathNode {
	n := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return n
}

func (s *stackFrontier) empty() bool { return len(s.nodes) == 0 }

// queueItem wraps a node with its frontier priority.
type queueItem struct {
	node     *PathNode
	priority float64
	index    int
}

// priorityQueue implements heap.Interface, ordered by ascending priority.
type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].priority < pq[j].priority
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
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// heapFrontier orders the open set by a strategy-specific priority function.
type heapFrontier struct {
	pq       priorityQueue
	priority func(*PathNode) float64
}

func newHeapFrontier(priority func(*PathNode) float64) *heapFrontier {
	f := &heapFrontier{priority: priority}
	heap.Init(&f.pq)
	return f
}

func (f *heapFrontier) push(n *PathNode) {
	heap.Push(&f.pq, &queueItem{node: n, priority: f.priority(n)})
}

func (f *heapFrontier) pop() *PathNode {
	return heap.Pop(&f.pq).(*queueItem).node
}

func (f *heapFrontier) empty() bool { return f.pq.Len() == 0 }

// newFrontier builds the frontier for a strategy with the given goal for the
// heuristic-driven orderings.
func newFrontier(s Strategy, goal geom.Point) frontier {
	switch s {
	case Uniform:
		return newHeapFrontier(func(n *PathNode) float64 { return n.Cost })
	case Greedy:
		return newHeapFrontier(func(n *PathNode) float64 { return n.Point.Distance(goal) })
	case AStar:
		return newHeapFrontier(func(n *PathNode) float64 { return n.Cost + n.Point.Distance(goal) })
	default:
		return &stackFrontier{}
	}
}
