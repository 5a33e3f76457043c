package graph

import "container/heap"

// Path is a sequence of edges from Nodes[0] to Nodes[len(Nodes)-1].
type Path struct {
	Nodes []string
	Edges []RouteEdge
	Cost  float64
}

// Hops returns the number of edges on the path.
func (p Path) Hops() int { return len(p.Edges) }

// ShortestPath finds the cheapest path from source to target by summed quote
// price using Dijkstra's algorithm. Prices are positive, so the search is
// exact. Ties are broken by exploring nodes in ascending code order, which
// makes the result stable for a given snapshot. ok is false if target is
// unreachable or either endpoint is missing.
//
// Complexity: O((V + E) log V) time, O(V + E) space.
func ShortestPath(s *Snapshot, source, target string) (Path, bool) {
	if s == nil || !s.HasNode(source) || !s.HasNode(target) || source == target {
		return Path{}, false
	}

	dist := map[string]float64{source: 0}
	prev := make(map[string]string)
	visited := make(map[string]bool)

	pq := nodePQ{{id: source, dist: 0}}
	heap.Init(&pq)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u := item.id
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == target {
			break
		}

		for _, v := range s.Successors(u) {
			if visited[v] {
				continue
			}
			e, _ := s.Edge(u, v)
			nd := dist[u] + e.Quote.Price
			if cur, seen := dist[v]; seen && nd >= cur {
				continue
			}
			dist[v] = nd
			prev[v] = u
			heap.Push(&pq, &nodeItem{id: v, dist: nd})
		}
	}

	if !visited[target] {
		return Path{}, false
	}
	return buildPath(s, prev, source, target), true
}

// buildPath walks prev back from target and sums the edge prices in order.
func buildPath(s *Snapshot, prev map[string]string, source, target string) Path {
	nodes := []string{target}
	for n := target; n != source; {
		n = prev[n]
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	p := Path{Nodes: nodes, Edges: make([]RouteEdge, 0, len(nodes)-1)}
	for i := 0; i+1 < len(nodes); i++ {
		e, _ := s.Edge(nodes[i], nodes[i+1])
		p.Edges = append(p.Edges, e)
		p.Cost += e.Quote.Price
	}
	return p
}

type nodeItem struct {
	id   string
	dist float64
}

// nodePQ is a min-heap ordered by distance, then by node code.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(*nodeItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
