package router

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/fakegraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/guides"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/indexgraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/transit"
	"golang.org/x/exp/slog"
)

// query holds the graphs of one CalculateRoute call. Nothing in it is shared with other queries.
type query struct {
	id    uuid.UUID
	mode  Mode
	cfg   Config
	log   *slog.Logger
	alloc *datastructure.IDAllocator

	world   *indexgraph.WorldGraph
	guides  *guides.Graph
	transit *transit.Graph
	// stitched holds the fake graphs of all legs.
	stitched *fakegraph.Graph
}

func (q *query) build(tiles map[datastructure.TileID]*tile.Tile) {
	ids := make([]datastructure.TileID, 0, len(tiles))
	for id := range tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	q.alloc.Reset()
	q.stitched = fakegraph.NewGraph()
	q.world = indexgraph.NewWorldGraph(newEstimator(q.cfg, q.mode))
	for _, id := range ids {
		q.world.AddTile(tiles[id])
	}

	if q.mode != ModeCar {
		q.guides = guides.NewGraph(q.alloc, q.cfg.PedestrianSpeedKMH)
		makeEnding := q.world.EndingMaker(q.cfg.GuidesRadius)
		for _, id := range ids {
			q.guides.Fill(id, tiles[id].Data().Guides, makeEnding)
		}
	}

	if q.mode == ModeTransit {
		q.transit = transit.NewGraph(q.alloc)
		for _, id := range ids {
			data := tiles[id].Data().Transit
			if data.IsEmpty() {
				continue
			}
			gateEndings := make(map[uint32]fakegraph.FakeEnding, len(data.Gates))
			for _, gate := range data.Gates {
				if ending, ok := q.world.MakeTileFakeEnding(id, gate.Point, q.cfg.SnapRadius); ok {
					gateEndings[gate.ID] = ending
				}
			}
			q.transit.Fill(id, data, gateEndings)
		}
	}

	q.log.Debug("query graphs built", "tiles", len(ids),
		"guides_fakes", q.alloc.Count(datastructure.FakeKindGuides),
		"transit_fakes", q.alloc.Count(datastructure.FakeKindTransit))
}

// makeEndpoint projects p onto the roads and, off car mode, onto the guide tracks. A track
// closer than every road wins.
func (q *query) makeEndpoint(p datastructure.LatLonWithAltitude) (indexgraph.Endpoint, bool) {
	ep := indexgraph.Endpoint{Point: p}
	ending, hasRoad := q.world.MakeFakeEnding(p, q.cfg.SnapRadius)
	if hasRoad {
		ep.Ending = ending
	}

	if q.guides != nil {
		if proj, ok := q.guides.FindProjection(p, q.cfg.GuidesRadius); ok && (!hasRoad || proj.Distance <= nearest(ending)) {
			ep.Guide = proj
			ep.OnGuide = true
		}
	}
	return ep, hasRoad || ep.OnGuide
}

func nearest(ending fakegraph.FakeEnding) float64 {
	best := -1.0
	for _, p := range ending.Projections {
		if best < 0 || p.Distance < best {
			best = p.Distance
		}
	}
	return best
}

// route searches every leg and fills result. The first failing leg decides the code.
func (q *query) route(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude, result *RouteResult) ResultCode {
	endpoints := make([]indexgraph.Endpoint, len(checkpoints))
	for i, p := range checkpoints {
		ep, ok := q.makeEndpoint(p)
		if !ok {
			q.log.Warn("checkpoint is too far from the roads", "checkpoint", i, "lat", p.Lat, "lon", p.Lon)
			if i == 0 {
				return StartPointNotFound
			}
			return EndPointNotFound
		}
		endpoints[i] = ep
	}

	for i := 0; i+1 < len(endpoints); i++ {
		starter := indexgraph.NewStarter(q.world, q.alloc, q.guides, q.transit, endpoints[i], endpoints[i+1])
		params := routingalgorithm.NewParams(ctx, q.cfg.Timeout)
		if q.cfg.CheckInterval > 0 {
			params.CheckInterval = q.cfg.CheckInterval
		}

		started := time.Now()
		res, leg := routingalgorithm.FindPathBidirectional[datastructure.Segment, datastructure.RouteWeight](
			starter, starter.Start(), starter.Finish(), params)
		q.log.Debug("leg searched", "leg", i, "result", res.String(), "settled", leg.SettledVertices,
			"expanded", leg.ExpandedEdges, "took", time.Since(started))

		switch res {
		case routingalgorithm.ResultNoPath:
			return RouteNotFound
		case routingalgorithm.ResultCancelled:
			return Cancelled
		}

		q.stitched.Append(starter.Fake())
		q.appendLeg(starter, leg.Path, result)
		result.Legs = append(result.Legs, leg.Distance)
		result.Weight = result.Weight.Add(leg.Distance)
	}

	result.Polyline = encodePolyline(result.Points())
	return NoError
}

// appendLeg adds the segments of path without its start and finish loops.
func (q *query) appendLeg(starter *indexgraph.Starter, path []datastructure.Segment, result *RouteResult) {
	if len(path) < 2 {
		return
	}
	for _, seg := range path[1 : len(path)-1] {
		rs := RouteSegment{
			Segment: seg,
			From:    q.getPoint(seg, false),
			To:      q.getPoint(seg, true),
			Weight:  starter.CalcSegmentWeight(seg),
			Transit: seg.IsTransitFake(),
		}
		rs.Real, rs.HasReal = q.findReal(seg)
		result.Segments = append(result.Segments, rs)
	}
}

func (q *query) overlay(seg datastructure.Segment) *fakegraph.Graph {
	if seg.IsTransitFake() {
		return q.transit.Fake()
	}
	return q.stitched
}

func (q *query) getPoint(seg datastructure.Segment, front bool) datastructure.LatLonWithAltitude {
	if !seg.IsFake() {
		return q.world.GetPoint(seg, front)
	}
	return q.overlay(seg).GetVertex(seg).GetJunction(front)
}

func (q *query) findReal(seg datastructure.Segment) (datastructure.Segment, bool) {
	if !seg.IsFake() {
		return datastructure.Segment{}, false
	}
	return q.overlay(seg).FindReal(seg)
}

func encodePolyline(points []datastructure.LatLonWithAltitude) string {
	if len(points) == 0 {
		return ""
	}
	simplified := geo.SimplifyPolyline(points, geo.DefaultSimplifyTolerance)
	coords := make([]datastructure.Coordinate, len(simplified))
	for i, p := range simplified {
		coords[i] = p.GetLatLon()
	}
	return datastructure.CreatePolyline(coords)
}
