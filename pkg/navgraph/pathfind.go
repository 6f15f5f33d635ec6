package navgraph

import (
	"container/heap"
)

// PathOptions filters a path search for a specific device. Filtering happens
// on every call; results are never cached, so the same graph serves a fleet
// of mixed devices. The zero value disables filtering and admits every edge.
type PathOptions struct {
	DeviceModel string
	OSVersion   string
}

func (o PathOptions) admits(e *Edge) bool {
	if o.DeviceModel == "" && o.OSVersion == "" {
		return true
	}
	return e.Applies.Matches(o.DeviceModel, o.OSVersion)
}

// FindPath returns the cheapest sequence of edges leading from one node to
// another, considering only edges applicable to the device in opts.
//
// Ties between equally cheap routes break by edge declaration order, so
// repeated searches over the same graph version return the same path. When
// from == to the path is empty: being at the target already is success, not
// an error. Searching never mutates the graph and is safe for concurrent use.
func FindPath(g *Graph, from, to string, opts PathOptions) ([]*Edge, error) {
	if _, ok := g.nodes[from]; !ok {
		return nil, &UnknownNodeError{Graph: g.name, Node: from}
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, &UnknownNodeError{Graph: g.name, Node: to}
	}
	if from == to {
		return []*Edge{}, nil
	}

	var path []*Edge
	if g.uniform {
		path = bfsSearch(g, from, to, opts)
	} else {
		path = costSearch(g, from, to, opts)
	}
	if path == nil {
		return nil, &NoPathError{Graph: g.name, From: from, To: to, Model: opts.DeviceModel}
	}
	return path, nil
}

// PathCost returns the summed weight of a path.
func PathCost(path []*Edge) int {
	total := 0
	for _, e := range path {
		total += e.Weight
	}
	return total
}

// bfsSearch finds a shortest path when every edge weighs 1. Because
// neighbors come back in declaration order, the first edge to reach a node
// is the declaration-order winner among all shortest routes.
func bfsSearch(g *Graph, from, to string, opts PathOptions) []*Edge {
	prev := make(map[string]*Edge)
	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if !opts.admits(e) || visited[e.To] {
				continue
			}
			visited[e.To] = true
			prev[e.To] = e
			if e.To == to {
				return reconstruct(prev, from, to)
			}
			queue = append(queue, e.To)
		}
	}
	return nil
}

// costSearch is a uniform-cost search for weighted graphs. The queue orders
// by (cost, discovery sequence) and relaxation uses strict improvement only,
// so among equal-cost routes the earliest-discovered one survives.
func costSearch(g *Graph, from, to string, opts PathOptions) []*Edge {
	dist := map[string]int{from: 0}
	prev := make(map[string]*Edge)
	done := make(map[string]bool)

	seq := 0
	pq := &searchQueue{{node: from}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*searchItem)
		if done[item.node] {
			continue
		}
		done[item.node] = true
		if item.node == to {
			return reconstruct(prev, from, to)
		}
		for _, e := range g.out[item.node] {
			if !opts.admits(e) || done[e.To] {
				continue
			}
			next := item.cost + e.Weight
			if d, seen := dist[e.To]; !seen || next < d {
				dist[e.To] = next
				prev[e.To] = e
				seq++
				heap.Push(pq, &searchItem{node: e.To, cost: next, seq: seq})
			}
		}
	}
	return nil
}

// reconstruct walks the predecessor map backwards from the target.
func reconstruct(prev map[string]*Edge, from, to string) []*Edge {
	var rev []*Edge
	for cur := to; cur != from; {
		e := prev[cur]
		rev = append(rev, e)
		cur = e.From
	}
	path := make([]*Edge, len(rev))
	for i, e := range rev {
		path[len(rev)-1-i] = e
	}
	return path
}

type searchItem struct {
	node string
	cost int
	seq  int
}

type searchQueue []*searchItem

func (q searchQueue) Len() int { return len(q) }

func (q searchQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q searchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *searchQueue) Push(x any) { *q = append(*q, x.(*searchItem)) }

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
