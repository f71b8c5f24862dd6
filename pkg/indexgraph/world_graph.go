package indexgraph

import (
	"fmt"
	"sort"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/fakegraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/guides"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// projections farther than the best one plus this are not candidates.
	candidateDistanceSlack = 20.0
	MaxCandidates          = 4
)

// WorldGraph joins the index graphs of the loaded tiles. Border points with the same key in
// different tiles are twins, the search crosses between tiles through them.
type WorldGraph struct {
	estimator EdgeEstimator
	graphs    map[datastructure.TileID]*IndexGraph
	// border key -> tiles having it.
	borders map[string][]datastructure.TileID
}

func NewWorldGraph(estimator EdgeEstimator) *WorldGraph {
	return &WorldGraph{
		estimator: estimator,
		graphs:    make(map[datastructure.TileID]*IndexGraph),
		borders:   make(map[string][]datastructure.TileID),
	}
}

func (w *WorldGraph) Estimator() EdgeEstimator {
	return w.estimator
}

// AddTile adds t once. Twins inside t itself are joined into one vertex.
func (w *WorldGraph) AddTile(t *tile.Tile) *IndexGraph {
	if g, ok := w.graphs[t.ID()]; ok {
		return g
	}
	g := NewIndexGraph(t, w.estimator)
	w.graphs[t.ID()] = g

	for _, key := range t.BorderKeys() {
		points := t.BorderPoints(key)
		for i := 1; i < len(points); i++ {
			g.JoinPoints(points[0], points[i])
		}
		w.borders[key] = append(w.borders[key], t.ID())
		slices.Sort(w.borders[key])
	}
	return g
}

func (w *WorldGraph) HasTile(id datastructure.TileID) bool {
	_, ok := w.graphs[id]
	return ok
}

// GetIndexGraph panics when the tile was not added, tiles are loaded before search.
func (w *WorldGraph) GetIndexGraph(id datastructure.TileID) *IndexGraph {
	g, ok := w.graphs[id]
	if !ok {
		panic(fmt.Sprintf("tile %d is not loaded into the world graph", id))
	}
	return g
}

func (w *WorldGraph) TileIDs() []datastructure.TileID {
	ids := maps.Keys(w.graphs)
	slices.Sort(ids)
	return ids
}

// GetEdgeList appends the neighbours of the real segment from, in its own tile and across the
// tile border.
func (w *WorldGraph) GetEdgeList(from datastructure.Segment, isOutgoing bool, previous PreviousFeatures, edges *[]SegmentEdge) {
	g := w.GetIndexGraph(from.Tile)
	g.GetEdgeList(from, isOutgoing, previous, edges)

	rp := from.GetRoadPoint(isOutgoing)
	key, ok := g.tile.BorderKey(rp)
	if !ok {
		return
	}
	for _, tileID := range w.borders[key] {
		if tileID == from.Tile {
			continue
		}
		twin := w.graphs[tileID]
		// twins inside one tile are joined by AddTile, the first one stands for all.
		twinPoints := twin.tile.BorderPoints(key)
		if len(twinPoints) == 0 {
			continue
		}
		twin.forEachJointPoint(twinPoints[0], func(twinPoint datastructure.RoadPoint) {
			twin.forEachAdjacentSegment(twinPoint, isOutgoing, func(to datastructure.Segment) {
				var weight datastructure.RouteWeight
				if isOutgoing {
					weight = twin.CalcSegmentWeight(to)
				} else {
					weight = g.CalcSegmentWeight(from)
				}
				if g.GetRoad(from).PassThroughAllowed != twin.GetRoad(to).PassThroughAllowed {
					weight.NumPassThroughChanges++
				}
				*edges = append(*edges, routingalgorithm.NewEdge(to, weight))
			})
		})
	}
}

func (w *WorldGraph) CalcSegmentWeight(s datastructure.Segment) datastructure.RouteWeight {
	return w.GetIndexGraph(s.Tile).CalcSegmentWeight(s)
}

func (w *WorldGraph) GetPoint(s datastructure.Segment, front bool) datastructure.LatLonWithAltitude {
	return w.GetIndexGraph(s.Tile).GetPoint(s, front)
}

func (w *WorldGraph) GetRoad(s datastructure.Segment) *tile.Road {
	return w.GetIndexGraph(s.Tile).GetRoad(s)
}

// MakeFakeEnding projects p onto the accessible roads of all loaded tiles within radius meters.
func (w *WorldGraph) MakeFakeEnding(p datastructure.LatLonWithAltitude, radius float64) (fakegraph.FakeEnding, bool) {
	candidates := make([]tile.Candidate, 0)
	for _, id := range w.TileIDs() {
		candidates = append(candidates, w.graphs[id].tile.Spatial().SearchRadius(p, radius)...)
	}
	return w.makeFakeEnding(p, candidates)
}

// MakeTileFakeEnding is MakeFakeEnding restricted to one tile.
func (w *WorldGraph) MakeTileFakeEnding(tileID datastructure.TileID, p datastructure.LatLonWithAltitude, radius float64) (fakegraph.FakeEnding, bool) {
	g, ok := w.graphs[tileID]
	if !ok {
		return fakegraph.FakeEnding{}, false
	}
	return w.makeFakeEnding(p, g.tile.Spatial().SearchRadius(p, radius))
}

// EndingMaker joins guide tracks to the roads of their tile.
func (w *WorldGraph) EndingMaker(radius float64) guides.EndingMaker {
	return func(tileID datastructure.TileID, p datastructure.LatLonWithAltitude) (fakegraph.FakeEnding, bool) {
		return w.MakeTileFakeEnding(tileID, p, radius)
	}
}

// makeFakeEnding keeps the accessible candidates not farther than the nearest one plus
// candidateDistanceSlack, at most MaxCandidates of them.
func (w *WorldGraph) makeFakeEnding(p datastructure.LatLonWithAltitude, candidates []tile.Candidate) (fakegraph.FakeEnding, bool) {
	ending := fakegraph.FakeEnding{OriginJunction: p}

	accessible := make([]tile.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if w.estimator.IsAccessible(w.GetRoad(c.Segment)) {
			accessible = append(accessible, c)
		}
	}
	if len(accessible) == 0 {
		return ending, false
	}
	sort.SliceStable(accessible, func(i, j int) bool {
		if accessible[i].Distance != accessible[j].Distance {
			return accessible[i].Distance < accessible[j].Distance
		}
		return accessible[i].Segment.Less(accessible[j].Segment)
	})

	limit := accessible[0].Distance + candidateDistanceSlack
	for _, c := range accessible {
		if c.Distance > limit || len(ending.Projections) == MaxCandidates {
			break
		}
		ending.Projections = append(ending.Projections, fakegraph.Projection{
			Segment:      c.Segment,
			IsOneWay:     w.estimator.IsOneWay(w.GetRoad(c.Segment)),
			SegmentBack:  c.From,
			SegmentFront: c.To,
			Junction:     c.Junction,
			Distance:     c.Distance,
		})
	}
	return ending, true
}
