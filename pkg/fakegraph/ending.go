package fakegraph

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

// Graph is the fake graph over road segments used by queries, transit and guides.
type Graph = FakeGraph[datastructure.Segment, FakeVertex]

func NewGraph() *Graph {
	return NewFakeGraph[datastructure.Segment, FakeVertex]()
}

// AddEnding grafts ending onto anchor. For every projection a PureFake segment joins the
// origin and the junction, and PartOfReal segments join the junction with the ends of the
// projected segment (only along the allowed directions). With isOutgoing the new segments
// lead away from anchor, otherwise they lead into it.
// Returns the projection segment of every projection.
func AddEnding(g *Graph, alloc *datastructure.IDAllocator, kind datastructure.FakeKind,
	anchor datastructure.Segment, ending FakeEnding, isOutgoing bool) []datastructure.Segment {
	projectionSegments := make([]datastructure.Segment, 0, len(ending.Projections))

	for _, proj := range ending.Projections {
		tile := proj.Segment.Tile

		projVertex := NewFakeVertex(tile, ending.OriginJunction, proj.Junction, PureFake)
		if !isOutgoing {
			projVertex = NewFakeVertex(tile, proj.Junction, ending.OriginJunction, PureFake)
		}
		projSegment := addOrConnect(g, alloc, kind, anchor, projVertex, isOutgoing, false, datastructure.Segment{})
		projectionSegments = append(projectionSegments, projSegment)

		real := proj.Segment
		if isOutgoing {
			addPart(g, alloc, kind, projSegment, tile, proj.Junction, proj.SegmentFront, true, real)
			if !proj.IsOneWay {
				addPart(g, alloc, kind, projSegment, tile, proj.Junction, proj.SegmentBack, true, real.Reversed())
			}
		} else {
			addPart(g, alloc, kind, projSegment, tile, proj.SegmentBack, proj.Junction, false, real)
			if !proj.IsOneWay {
				addPart(g, alloc, kind, projSegment, tile, proj.SegmentFront, proj.Junction, false, real.Reversed())
			}
		}
	}
	return projectionSegments
}

func addPart(g *Graph, alloc *datastructure.IDAllocator, kind datastructure.FakeKind, projSegment datastructure.Segment,
	tile datastructure.TileID, from, to datastructure.LatLonWithAltitude, isOutgoing bool, real datastructure.Segment) {
	if from == to {
		return
	}
	vertex := NewFakeVertex(tile, from, to, PartOfReal)
	addOrConnect(g, alloc, kind, projSegment, vertex, isOutgoing, true, real)
}

func addOrConnect(g *Graph, alloc *datastructure.IDAllocator, kind datastructure.FakeKind, existent datastructure.Segment,
	vertex FakeVertex, isOutgoing, isPartOfReal bool, real datastructure.Segment) datastructure.Segment {
	if segment, ok := g.FindSegment(vertex); ok {
		if isOutgoing {
			g.AddConnection(existent, segment)
		} else {
			g.AddConnection(segment, existent)
		}
		if isPartOfReal {
			g.addPartOfReal(real, segment)
		}
		return segment
	}

	segment := alloc.Next(kind)
	g.AddVertex(existent, segment, vertex, isOutgoing, isPartOfReal, real)
	return segment
}

// AddSlice registers the slice of real from `from` to `to` without edges and returns its segment.
// An equal slice already in g is reused.
func AddSlice(g *Graph, alloc *datastructure.IDAllocator, kind datastructure.FakeKind,
	from, to datastructure.LatLonWithAltitude, real datastructure.Segment) datastructure.Segment {
	vertex := NewFakeVertex(real.Tile, from, to, PartOfReal)
	if segment, ok := g.FindSegment(vertex); ok {
		g.addPartOfReal(real, segment)
		return segment
	}
	segment := alloc.Next(kind)
	g.AddStandaloneVertex(segment, vertex)
	g.addPartOfReal(real, segment)
	return segment
}
