package fakegraph

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

type FakeVertexType uint8

const (
	// PureFake is a segment with no counterpart in the road graph (off-road part, transit edge...).
	PureFake FakeVertexType = iota
	// PartOfReal is a slice of a real (or guide) segment.
	PartOfReal
)

func (t FakeVertexType) String() string {
	if t == PartOfReal {
		return "part_of_real"
	}
	return "pure_fake"
}

// FakeVertex is the geometry of a fake segment. Two vertices with the same points but
// different types are different vertices.
type FakeVertex struct {
	Tile datastructure.TileID
	From datastructure.LatLonWithAltitude
	To   datastructure.LatLonWithAltitude
	Type FakeVertexType
}

func NewFakeVertex(tile datastructure.TileID, from, to datastructure.LatLonWithAltitude, vertexType FakeVertexType) FakeVertex {
	return FakeVertex{
		Tile: tile,
		From: from,
		To:   to,
		Type: vertexType,
	}
}

func (v FakeVertex) GetPointFrom() datastructure.LatLonWithAltitude {
	return v.From
}

func (v FakeVertex) GetPointTo() datastructure.LatLonWithAltitude {
	return v.To
}

// GetJunction returns the front (To) or back (From) point.
func (v FakeVertex) GetJunction(front bool) datastructure.LatLonWithAltitude {
	if front {
		return v.To
	}
	return v.From
}

func (v FakeVertex) String() string {
	return fmt.Sprintf("fakeVertex(%d, %v -> %v, %s)", v.Tile, v.From.Coordinate, v.To.Coordinate, v.Type)
}

// Projection of a query point onto one real segment.
type Projection struct {
	Segment      datastructure.Segment
	IsOneWay     bool
	SegmentFront datastructure.LatLonWithAltitude
	SegmentBack  datastructure.LatLonWithAltitude
	Junction     datastructure.LatLonWithAltitude
	// Distance in meters from the query point to Junction.
	Distance float64
}

// FakeEnding is an arbitrary point and all its candidate projections.
type FakeEnding struct {
	OriginJunction datastructure.LatLonWithAltitude
	Projections    []Projection
}

func (e FakeEnding) IsEmpty() bool {
	return len(e.Projections) == 0
}

// SegmentVertex pairs a fake segment with its vertex.
type SegmentVertex[S any, V any] struct {
	Segment S
	Vertex  V
}
