package routingalgorithm

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"golang.org/x/exp/slog"
)

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

// reduceWeight returns w + p(to) - p(from), clamped to zero when it is negative beyond the weight tolerance.
func reduceWeight[V comparable, W Weight[W]](w, potentialFrom, potentialTo, reference W, from, to V) W {
	reduced := w.Add(potentialTo).Sub(potentialFrom)
	if reduced.IsBadReducedWeight(reference) {
		slog.Warn("inadmissible heuristic, negative reduced weight clamped",
			"from", from, "to", to, "weight", w, "reduced", reduced)
	}
	return reduced.ClampNonNegative()
}

func reconstructPath[V comparable](parents map[V]V, v V, start V) []V {
	path := []V{v}
	for v != start {
		v = parents[v]
		path = append(path, v)
	}
	return path
}

func reverse[V any](s []V) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// FindPathAStar unidirectional A* from start to finish. Queue keys are reduced distances:
// dist(v) + h(v, finish) - h(start, finish).
func FindPathAStar[V comparable, W Weight[W]](graph AStarGraph[V, W], start, finish V, params Params) (Result, RoutingResult[V, W]) {
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

	parents := make(map[V]V)
	graph.SetAStarParents(true, parents)
	defer graph.DropAStarParents()

	potential := func(v V) W {
		return graph.HeuristicCostEstimate(v, finish)
	}

	dist := map[V]W{start: zero}
	key := map[V]W{start: zero}
	pq := datastructure.NewMinHeap[V, W](func(a, b W) bool { return a.Less(b) })
	pq.Insert(datastructure.NewPriorityQueueNode(zero, start))

	edges := make([]Edge[V, W], 0, 8)
	for pq.Size() > 0 {
		node, _ := pq.ExtractMin()
		v := node.Item
		if key[v].Less(node.Rank) {
			// stale entry.
			continue
		}

		result.SettledVertices++
		if checker.isCancelled() {
			return ResultCancelled, result
		}

		if v == finish {
			path := reconstructPath(parents, v, start)
			reverse(path)
			result.Path = path
			result.Distance = dist[v]
			return ResultOK, result
		}

		pv := potential(v)
		graph.GetOutgoingEdgesList(v, &edges)
		for _, e := range edges {
			result.ExpandedEdges++
			to := e.Target
			newDist := dist[v].Add(e.Weight)
			reduced := reduceWeight(e.Weight, pv, potential(to), newDist, v, to)
			newKey := key[v].Add(reduced)

			if oldKey, ok := key[to]; ok && !newKey.Less(oldKey) {
				continue
			}
			key[to] = newKey
			dist[to] = newDist
			parents[to] = v
			pq.Insert(datastructure.NewPriorityQueueNode(newKey, to))
		}
	}
	return ResultNoPath, result
}
