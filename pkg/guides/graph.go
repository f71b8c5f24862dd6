package guides

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/fakegraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"golang.org/x/exp/slog"
)

// TrackPoint identifies a guide segment: the segment between points PointIdx and PointIdx+1
// of track TrackID.
type TrackPoint struct {
	Tile     datastructure.TileID
	TrackID  uint32
	PointIdx uint32
}

// Projection of a point onto a guide segment. Segment is the forward copy.
type Projection struct {
	Segment  datastructure.Segment
	From     datastructure.LatLonWithAltitude
	To       datastructure.LatLonWithAltitude
	Junction datastructure.LatLonWithAltitude
	Distance float64
}

// EndingMaker returns the projections of p onto the nearby roads of a tile.
type EndingMaker func(tileID datastructure.TileID, p datastructure.LatLonWithAltitude) (fakegraph.FakeEnding, bool)

// Graph is the guides overlay of one query. Every track segment is a standalone guides fake,
// its reversed copy (Forward false) runs the other way. Track ends are joined to the roads.
type Graph struct {
	fake  *fakegraph.Graph
	alloc *datastructure.IDAllocator
	// meters per second.
	speed float64

	weights        map[datastructure.Segment]float64
	segmentToTrack map[datastructure.Segment]TrackPoint
	spatial        *tile.SpatialIndex
	filled         map[datastructure.TileID]struct{}
}

// NewGraph speedKMH is the walking speed on tracks.
func NewGraph(alloc *datastructure.IDAllocator, speedKMH float64) *Graph {
	return &Graph{
		fake:           fakegraph.NewGraph(),
		alloc:          alloc,
		speed:          speedKMH / 3.6,
		weights:        make(map[datastructure.Segment]float64),
		segmentToTrack: make(map[datastructure.Segment]TrackPoint),
		spatial:        tile.NewSpatialIndex(),
		filled:         make(map[datastructure.TileID]struct{}),
	}
}

// Fill adds the tracks of one tile. Filling a tile twice is a no-op.
func (g *Graph) Fill(tileID datastructure.TileID, tracks []tile.GuideTrack, makeEnding EndingMaker) {
	if _, ok := g.filled[tileID]; ok {
		return
	}
	g.filled[tileID] = struct{}{}

	for _, track := range tracks {
		points := dedupPoints(track.Points)
		if len(points) < 2 {
			slog.Warn("guide track with less than two distinct points skipped", "tile", tileID, "track", track.ID)
			continue
		}
		g.addTrack(tileID, track.ID, points, makeEnding)
	}
}

func dedupPoints(points []datastructure.LatLonWithAltitude) []datastructure.LatLonWithAltitude {
	result := make([]datastructure.LatLonWithAltitude, 0, len(points))
	for i, p := range points {
		if i > 0 && p == result[len(result)-1] {
			continue
		}
		result = append(result, p)
	}
	return result
}

func (g *Graph) addTrack(tileID datastructure.TileID, trackID uint32, points []datastructure.LatLonWithAltitude, makeEnding EndingMaker) {
	forward := make([]datastructure.Segment, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		segment := g.alloc.Next(datastructure.FakeKindGuides)
		backward := segment.Reversed()

		g.fake.AddStandaloneVertex(segment, fakegraph.NewFakeVertex(tileID, from, to, fakegraph.PureFake))
		g.fake.AddStandaloneVertex(backward, fakegraph.NewFakeVertex(tileID, to, from, fakegraph.PureFake))

		weight := geo.DistanceMeters(from, to) / g.speed
		g.weights[segment] = weight
		g.weights[backward] = weight
		tp := TrackPoint{Tile: tileID, TrackID: trackID, PointIdx: uint32(i)}
		g.segmentToTrack[segment] = tp
		g.segmentToTrack[backward] = tp

		g.spatial.Insert(segment, from, to)

		if len(forward) > 0 {
			prev := forward[len(forward)-1]
			g.fake.AddConnection(prev, segment)
			g.fake.AddConnection(backward, prev.Reversed())
		}
		forward = append(forward, segment)
	}

	first := forward[0]
	last := forward[len(forward)-1]
	if ending, ok := makeEnding(tileID, points[0]); ok && !ending.IsEmpty() {
		fakegraph.AddEnding(g.fake, g.alloc, datastructure.FakeKindGuides, first, ending, false)
		fakegraph.AddEnding(g.fake, g.alloc, datastructure.FakeKindGuides, first.Reversed(), ending, true)
	} else {
		slog.Debug("guide track start not connected to roads", "tile", tileID, "track", trackID)
	}
	if ending, ok := makeEnding(tileID, points[len(points)-1]); ok && !ending.IsEmpty() {
		fakegraph.AddEnding(g.fake, g.alloc, datastructure.FakeKindGuides, last.Reversed(), ending, false)
		fakegraph.AddEnding(g.fake, g.alloc, datastructure.FakeKindGuides, last, ending, true)
	} else {
		slog.Debug("guide track end not connected to roads", "tile", tileID, "track", trackID)
	}
}

func (g *Graph) Fake() *fakegraph.Graph {
	return g.fake
}

func (g *Graph) IsFilled(tileID datastructure.TileID) bool {
	_, ok := g.filled[tileID]
	return ok
}

// IsTrackSegment reports whether segment is a track segment (not a track ending).
func (g *Graph) IsTrackSegment(segment datastructure.Segment) bool {
	_, ok := g.weights[segment]
	return ok
}

// GetWeight is the walking time of a track segment.
func (g *Graph) GetWeight(segment datastructure.Segment) (datastructure.RouteWeight, bool) {
	w, ok := g.weights[segment]
	if !ok {
		return datastructure.RouteWeight{}, false
	}
	return datastructure.NewRouteWeight(w), true
}

// GetTrackPoint panics if segment is not a track segment.
func (g *Graph) GetTrackPoint(segment datastructure.Segment) TrackPoint {
	tp, ok := g.segmentToTrack[segment]
	if !ok {
		panic(fmt.Sprintf("%v is not a guide track segment", segment))
	}
	return tp
}

// FindProjection returns the nearest track segment within radius meters of p.
func (g *Graph) FindProjection(p datastructure.LatLonWithAltitude, radius float64) (Projection, bool) {
	candidates := g.spatial.SearchRadius(p, radius)
	if len(candidates) == 0 {
		return Projection{}, false
	}
	c := candidates[0]
	return Projection{
		Segment:  c.Segment,
		From:     c.From,
		To:       c.To,
		Junction: c.Junction,
		Distance: c.Distance,
	}, true
}

// ConnectLoop adds a zero length loop vertex at the junction of proj to fake, which must contain
// the guides overlay, and splices it into the track in both directions. Returns the loop segment.
func ConnectLoop(fake *fakegraph.Graph, alloc *datastructure.IDAllocator, proj Projection) datastructure.Segment {
	tileID := fake.GetVertex(proj.Segment).Tile
	loopVertex := fakegraph.NewFakeVertex(datastructure.FakeTileID, proj.Junction, proj.Junction, fakegraph.PureFake)
	loopSegment := alloc.Next(datastructure.FakeKindQuery)
	fake.AddStandaloneVertex(loopSegment, loopVertex)

	parts := make([]fakegraph.SegmentVertex[datastructure.Segment, fakegraph.FakeVertex], 0, 4)
	addPart := func(from, to datastructure.LatLonWithAltitude) {
		if from == to {
			return
		}
		parts = append(parts, fakegraph.SegmentVertex[datastructure.Segment, fakegraph.FakeVertex]{
			Segment: alloc.Next(datastructure.FakeKindQuery),
			Vertex:  fakegraph.NewFakeVertex(tileID, from, to, fakegraph.PartOfReal),
		})
	}
	addPart(proj.From, proj.Junction)
	addPart(proj.Junction, proj.To)
	addPart(proj.To, proj.Junction)
	addPart(proj.Junction, proj.From)

	fake.ConnectLoopToGuideSegments(loopVertex, proj.Segment, proj.From, proj.To, parts)
	return loopSegment
}
