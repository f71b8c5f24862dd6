package fakegraph

import (
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(lat, lon float64) datastructure.LatLonWithAltitude {
	return datastructure.NewLatLon(lat, lon)
}

func vertex(fromLat, toLat float64, t FakeVertexType) FakeVertex {
	return NewFakeVertex(1, pt(fromLat, 0), pt(toLat, 0), t)
}

func TestAddVertexPartOfReal(t *testing.T) {
	g := NewGraph()
	alloc := datastructure.NewIDAllocator()

	start := alloc.Next(datastructure.FakeKindQuery)
	g.AddStandaloneVertex(start, vertex(0, 0, PureFake))

	real := datastructure.NewSegment(1, 10, 2, true)
	part := alloc.Next(datastructure.FakeKindQuery)
	g.AddVertex(start, part, vertex(0, 1, PartOfReal), true, true, real)

	got, ok := g.FindReal(part)
	require.True(t, ok)
	assert.Equal(t, real, got)
	assert.Contains(t, g.GetFake(real), part)
	assert.Equal(t, []datastructure.Segment{part}, g.GetEdges(start, true))
	assert.Equal(t, []datastructure.Segment{start}, g.GetEdges(part, false))

	_, ok = g.FindReal(start)
	assert.False(t, ok)

	seg, ok := g.FindSegment(vertex(0, 1, PartOfReal))
	assert.True(t, ok)
	assert.Equal(t, part, seg)
	_, ok = g.FindSegment(vertex(0, 1, PureFake))
	assert.False(t, ok)
}

func TestGetEdgesNeverNil(t *testing.T) {
	g := NewGraph()
	unknown := datastructure.NewSegment(datastructure.FakeTileID, 1, 99, true)
	assert.NotNil(t, g.GetEdges(unknown, true))
	assert.Empty(t, g.GetEdges(unknown, false))
	assert.NotNil(t, g.GetFake(datastructure.NewSegment(1, 1, 1, true)))
}

func TestAddStandaloneVertex(t *testing.T) {
	g := NewGraph()
	s := datastructure.NewIDAllocator().Next(datastructure.FakeKindQuery)

	g.AddStandaloneVertex(s, vertex(0, 1, PureFake))
	assert.NotPanics(t, func() { g.AddStandaloneVertex(s, vertex(0, 1, PureFake)) })
	assert.Equal(t, 1, g.GetSize())
	assert.Panics(t, func() { g.AddStandaloneVertex(s, vertex(0, 2, PureFake)) })
}

func TestAddConnectionUnregistered(t *testing.T) {
	g := NewGraph()
	alloc := datastructure.NewIDAllocator()
	a := alloc.Next(datastructure.FakeKindQuery)
	b := alloc.Next(datastructure.FakeKindQuery)
	g.AddStandaloneVertex(a, vertex(0, 1, PureFake))

	assert.Panics(t, func() { g.AddConnection(a, b) })
	assert.Panics(t, func() { g.AddConnection(b, a) })
	assert.Panics(t, func() { g.GetVertex(b) })
}

func buildChain(alloc *datastructure.IDAllocator, kind datastructure.FakeKind, lat float64) (*Graph, []datastructure.Segment) {
	g := NewGraph()
	first := alloc.Next(kind)
	g.AddStandaloneVertex(first, vertex(lat, lat+1, PureFake))
	second := alloc.Next(kind)
	g.AddVertex(first, second, vertex(lat+1, lat+2, PartOfReal), true, true, datastructure.NewSegment(1, 5, uint32(lat), true))
	return g, []datastructure.Segment{first, second}
}

func TestAppendDisjoint(t *testing.T) {
	alloc := datastructure.NewIDAllocator()
	lhs, lhsSegs := buildChain(alloc, datastructure.FakeKindQuery, 0)
	rhs, rhsSegs := buildChain(alloc, datastructure.FakeKindQuery, 10)

	lhsSize, rhsSize := lhs.GetSize(), rhs.GetSize()
	lhs.Append(rhs)

	assert.Equal(t, lhsSize+rhsSize, lhs.GetSize())
	assert.Equal(t, []datastructure.Segment{lhsSegs[1]}, lhs.GetEdges(lhsSegs[0], true))
	assert.Equal(t, []datastructure.Segment{rhsSegs[1]}, lhs.GetEdges(rhsSegs[0], true))
	assert.Equal(t, []datastructure.Segment{rhsSegs[0]}, lhs.GetEdges(rhsSegs[1], false))

	real, ok := lhs.FindReal(rhsSegs[1])
	assert.True(t, ok)
	assert.Equal(t, []datastructure.Segment{rhsSegs[1]}, lhs.GetFake(real))
}

func TestAppendCollisions(t *testing.T) {
	t.Run("guides collision is merged", func(t *testing.T) {
		guides, guideSegs := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindGuides, 0)
		other, _ := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindGuides, 0)

		size := guides.GetSize()
		assert.NotPanics(t, func() { guides.Append(other) })
		assert.Equal(t, size, guides.GetSize())
		assert.Equal(t, []datastructure.Segment{guideSegs[1]}, guides.GetEdges(guideSegs[0], true))
	})

	t.Run("guides collision with another vertex", func(t *testing.T) {
		guides, _ := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindGuides, 0)
		other, _ := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindGuides, 50)
		assert.Panics(t, func() { guides.Append(other) })
	})

	t.Run("query collision", func(t *testing.T) {
		lhs, _ := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindQuery, 0)
		rhs, _ := buildChain(datastructure.NewIDAllocator(), datastructure.FakeKindQuery, 0)
		assert.Panics(t, func() { lhs.Append(rhs) })
	})
}

/*
guide segment g: from(0) ----- loop(1) ----- to(2), and its reversed copy.
after splicing, every part touches the loop segment.
*/
func TestConnectLoopToGuideSegments(t *testing.T) {
	g := NewGraph()
	alloc := datastructure.NewIDAllocator()

	from, loopPoint, to := pt(0, 0), pt(1, 0), pt(2, 0)
	guide := alloc.Next(datastructure.FakeKindGuides)
	g.AddStandaloneVertex(guide, NewFakeVertex(1, from, to, PureFake))
	g.AddStandaloneVertex(guide.Reversed(), NewFakeVertex(1, to, from, PureFake))

	loopVertex := NewFakeVertex(datastructure.FakeTileID, loopPoint, loopPoint, PureFake)
	loop := alloc.Next(datastructure.FakeKindQuery)
	g.AddStandaloneVertex(loop, loopVertex)

	parts := []SegmentVertex[datastructure.Segment, FakeVertex]{
		{Segment: alloc.Next(datastructure.FakeKindQuery), Vertex: NewFakeVertex(1, loopPoint, to, PartOfReal)},
		{Segment: alloc.Next(datastructure.FakeKindQuery), Vertex: NewFakeVertex(1, from, loopPoint, PartOfReal)},
		{Segment: alloc.Next(datastructure.FakeKindQuery), Vertex: NewFakeVertex(1, loopPoint, from, PartOfReal)},
		{Segment: alloc.Next(datastructure.FakeKindQuery), Vertex: NewFakeVertex(1, to, loopPoint, PartOfReal)},
	}
	g.ConnectLoopToGuideSegments(loopVertex, guide, from, to, parts)

	forward := []datastructure.Segment{parts[0].Segment, parts[1].Segment}
	backward := []datastructure.Segment{parts[2].Segment, parts[3].Segment}
	assert.ElementsMatch(t, forward, g.GetFake(guide))
	assert.ElementsMatch(t, backward, g.GetFake(guide.Reversed()))

	assert.ElementsMatch(t, []datastructure.Segment{parts[0].Segment, parts[2].Segment}, g.GetEdges(loop, true))
	assert.ElementsMatch(t, []datastructure.Segment{parts[1].Segment, parts[3].Segment}, g.GetEdges(loop, false))
	assert.Equal(t, []datastructure.Segment{loop}, g.GetEdges(parts[1].Segment, true))
	assert.Equal(t, parts[0].Vertex, g.GetVertex(parts[0].Segment))

	bad := []SegmentVertex[datastructure.Segment, FakeVertex]{
		{Segment: alloc.Next(datastructure.FakeKindQuery), Vertex: NewFakeVertex(1, from, to, PartOfReal)},
	}
	assert.Panics(t, func() { g.ConnectLoopToGuideSegments(loopVertex, guide, from, to, bad) })
}
