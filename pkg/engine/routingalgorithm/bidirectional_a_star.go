package routingalgorithm

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

// wave is one direction of the bidirectional search.
type wave[V comparable, W Weight[W]] struct {
	forward bool
	start   V
	graph   AStarGraph[V, W]

	potential func(v V) W
	// real distance from start, reduced distance (queue key).
	dist    map[V]W
	key     map[V]W
	parents map[V]V
	queue   *datastructure.MinHeap[V, W]
	edges   []Edge[V, W]
}

func newWave[V comparable, W Weight[W]](graph AStarGraph[V, W], forward bool, start V, potential func(v V) W) *wave[V, W] {
	var zero W
	w := &wave[V, W]{
		forward:   forward,
		start:     start,
		graph:     graph,
		potential: potential,
		dist:      map[V]W{start: zero},
		key:       map[V]W{start: zero},
		parents:   make(map[V]V),
		queue:     datastructure.NewMinHeap[V, W](func(a, b W) bool { return a.Less(b) }),
		edges:     make([]Edge[V, W], 0, 8),
	}
	w.queue.Insert(datastructure.NewPriorityQueueNode(zero, start))
	return w
}

// top drops stale entries and returns the smallest key.
func (w *wave[V, W]) top() (datastructure.PriorityQueueNode[V, W], bool) {
	for w.queue.Size() > 0 {
		node, _ := w.queue.GetMin()
		if w.key[node.Item].Less(node.Rank) {
			w.queue.ExtractMin()
			continue
		}
		return node, true
	}
	return datastructure.PriorityQueueNode[V, W]{}, false
}

func (w *wave[V, W]) getEdges(v V) []Edge[V, W] {
	if w.forward {
		w.graph.GetOutgoingEdgesList(v, &w.edges)
	} else {
		w.graph.GetIngoingEdgesList(v, &w.edges)
	}
	return w.edges
}

type bestPath[V comparable, W Weight[W]] struct {
	found  bool
	common V
	dist   W
}

// FindPathBidirectional bidirectional A* with average potentials:
//
//	pf(v) = (h(v, finish) - h(start, v)) / 2,  pr(v) = -pf(v)
//
// so that reduced edge weights are equal in both waves. The search stops when the sum of the
// queue tops reaches the best path found, in reduced terms.
func FindPathBidirectional[V comparable, W Weight[W]](graph AStarGraph[V, W], start, finish V, params Params) (Result, RoutingResult[V, W]) {
	var result RoutingResult[V, W]
	checker := newCancellable(params)
	if checker.isCancelledNow() {
		return ResultCancelled, result
	}

	var zero W
	if start == finish {
		result.Path = []V{start}
		result.Distance = zero
		return ResultOK, result
	}

	forwardPotential := func(v V) W {
		return graph.HeuristicCostEstimate(v, finish).Sub(graph.HeuristicCostEstimate(start, v)).Scale(0.5)
	}
	backwardPotential := func(v V) W {
		return graph.HeuristicCostEstimate(start, v).Sub(graph.HeuristicCostEstimate(v, finish)).Scale(0.5)
	}

	fwd := newWave(graph, true, start, forwardPotential)
	bwd := newWave(graph, false, finish, backwardPotential)
	graph.SetAStarParents(true, fwd.parents)
	graph.SetAStarParents(false, bwd.parents)
	defer graph.DropAStarParents()

	// topF + topR >= best + pf(finish) - pf(start) proves that best is optimal.
	stopOffset := forwardPotential(finish).Sub(forwardPotential(start))

	var best bestPath[V, W]
	for {
		fTop, fOk := fwd.top()
		bTop, bOk := bwd.top()
		if !fOk || !bOk {
			break
		}
		if best.found && !fTop.Rank.Add(bTop.Rank).Less(best.dist.Add(stopOffset)) {
			break
		}

		cur, other := fwd, bwd
		if bwd.queue.Size() < fwd.queue.Size() {
			cur, other = bwd, fwd
		}

		node, _ := cur.queue.ExtractMin()
		v := node.Item
		result.SettledVertices++
		if checker.isCancelled() {
			return ResultCancelled, result
		}

		pv := cur.potential(v)
		for _, e := range cur.getEdges(v) {
			result.ExpandedEdges++
			to := e.Target
			newDist := cur.dist[v].Add(e.Weight)
			reduced := reduceWeight(e.Weight, pv, cur.potential(to), newDist, v, to)
			newKey := cur.key[v].Add(reduced)

			if oldKey, ok := cur.key[to]; ok && !newKey.Less(oldKey) {
				continue
			}
			cur.key[to] = newKey
			cur.dist[to] = newDist
			cur.parents[to] = v
			cur.queue.Insert(datastructure.NewPriorityQueueNode(newKey, to))

			otherDist, ok := other.dist[to]
			if !ok {
				continue
			}
			candidate := newDist.Add(otherDist)
			if best.found && !candidate.Less(best.dist) {
				continue
			}
			if !graph.AreWavesConnectible(fwd.parents, to, bwd.parents) {
				continue
			}
			best = bestPath[V, W]{found: true, common: to, dist: candidate}
		}
	}

	if !best.found {
		return ResultNoPath, result
	}

	path := reconstructPath(fwd.parents, best.common, start)
	reverse(path)
	if best.common != finish {
		backward := reconstructPath(bwd.parents, best.common, finish)
		path = append(path, backward[1:]...)
	}
	result.Path = path
	result.Distance = best.dist
	return ResultOK, result
}
