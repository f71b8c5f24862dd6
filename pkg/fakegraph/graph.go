package fakegraph

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/tidwall/btree"
)

// SegmentKey is the segment type of a FakeGraph.
type SegmentKey[S any] interface {
	comparable
	Less(other S) bool
	Reversed() S
	IsGuidesFake() bool
}

// VertexKey is the vertex type of a FakeGraph.
type VertexKey interface {
	comparable
	GetPointFrom() datastructure.LatLonWithAltitude
	GetPointTo() datastructure.LatLonWithAltitude
}

func newSegmentSet[S SegmentKey[S]]() *btree.BTreeG[S] {
	return btree.NewBTreeGOptions(func(a, b S) bool { return a.Less(b) }, btree.Options{NoLocks: true})
}

// FakeGraph is a query scoped overlay of fake segments. It keeps the topology among fake
// segments (outgoing/ingoing) apart from the correspondence of fake segments to the real
// segments they are slices of (realToFake/fakeToReal).
type FakeGraph[S SegmentKey[S], V VertexKey] struct {
	segmentToVertex map[S]V
	vertexToSegment map[V]S
	outgoing        map[S]*btree.BTreeG[S]
	ingoing         map[S]*btree.BTreeG[S]
	realToFake      map[S]*btree.BTreeG[S]
	fakeToReal      map[S]S
}

func NewFakeGraph[S SegmentKey[S], V VertexKey]() *FakeGraph[S, V] {
	return &FakeGraph[S, V]{
		segmentToVertex: make(map[S]V),
		vertexToSegment: make(map[V]S),
		outgoing:        make(map[S]*btree.BTreeG[S]),
		ingoing:         make(map[S]*btree.BTreeG[S]),
		realToFake:      make(map[S]*btree.BTreeG[S]),
		fakeToReal:      make(map[S]S),
	}
}

// AddStandaloneVertex registers segment without edges. Adding the same pair twice is a no-op,
// adding a different vertex for a registered segment panics.
func (g *FakeGraph[S, V]) AddStandaloneVertex(segment S, vertex V) {
	if existing, ok := g.segmentToVertex[segment]; ok {
		if existing != vertex {
			panic(fmt.Sprintf("fake segment %v already registered with vertex %v, got %v", segment, existing, vertex))
		}
		return
	}
	g.segmentToVertex[segment] = vertex
	g.vertexToSegment[vertex] = segment
}

// AddVertex registers newSegment and links it after (isOutgoing) or before existentSegment.
// With isPartOfReal newSegment is recorded as a slice of real.
func (g *FakeGraph[S, V]) AddVertex(existentSegment, newSegment S, newVertex V, isOutgoing, isPartOfReal bool, real S) {
	g.AddStandaloneVertex(newSegment, newVertex)
	if isOutgoing {
		g.AddConnection(existentSegment, newSegment)
	} else {
		g.AddConnection(newSegment, existentSegment)
	}

	if isPartOfReal {
		g.addPartOfReal(real, newSegment)
	}
}

func (g *FakeGraph[S, V]) addPartOfReal(real, fake S) bool {
	if prev, ok := g.fakeToReal[fake]; ok && prev != real {
		panic(fmt.Sprintf("fake segment %v is part of %v, got %v", fake, prev, real))
	}
	set, ok := g.realToFake[real]
	if !ok {
		set = newSegmentSet[S]()
		g.realToFake[real] = set
	}
	_, replaced := set.Set(fake)
	g.fakeToReal[fake] = real
	return !replaced
}

// AddConnection links two registered segments. Panics if one of them is unknown.
func (g *FakeGraph[S, V]) AddConnection(from, to S) {
	if _, ok := g.segmentToVertex[from]; !ok {
		panic(fmt.Sprintf("add connection from unregistered fake segment %v", from))
	}
	if _, ok := g.segmentToVertex[to]; !ok {
		panic(fmt.Sprintf("add connection to unregistered fake segment %v", to))
	}
	g.edgeSet(g.outgoing, from).Set(to)
	g.edgeSet(g.ingoing, to).Set(from)
}

func (g *FakeGraph[S, V]) edgeSet(edges map[S]*btree.BTreeG[S], s S) *btree.BTreeG[S] {
	set, ok := edges[s]
	if !ok {
		set = newSegmentSet[S]()
		edges[s] = set
	}
	return set
}

// Append merges rhs into g. Segments present in both graphs must be guides fakes with equal
// vertices, any other collision panics.
func (g *FakeGraph[S, V]) Append(rhs *FakeGraph[S, V]) {
	for s, v := range rhs.segmentToVertex {
		existing, ok := g.segmentToVertex[s]
		if !ok {
			continue
		}
		if !s.IsGuidesFake() {
			panic(fmt.Sprintf("fake segments are not unique: %v", s))
		}
		if existing != v {
			panic(fmt.Sprintf("guides fake segment %v has different vertices %v and %v", s, existing, v))
		}
	}

	for s, v := range rhs.segmentToVertex {
		if _, ok := g.segmentToVertex[s]; !ok {
			g.segmentToVertex[s] = v
		}
	}
	for v, s := range rhs.vertexToSegment {
		if _, ok := g.vertexToSegment[v]; !ok {
			g.vertexToSegment[v] = s
		}
	}
	mergeEdges(g.outgoing, rhs.outgoing)
	mergeEdges(g.ingoing, rhs.ingoing)
	mergeEdges(g.realToFake, rhs.realToFake)
	for f, r := range rhs.fakeToReal {
		if _, ok := g.fakeToReal[f]; !ok {
			g.fakeToReal[f] = r
		}
	}
}

func mergeEdges[S SegmentKey[S]](dst, src map[S]*btree.BTreeG[S]) {
	for s, set := range src {
		dstSet, ok := dst[s]
		if !ok {
			dstSet = newSegmentSet[S]()
			dst[s] = dstSet
		}
		set.Scan(func(item S) bool {
			dstSet.Set(item)
			return true
		})
	}
}

// GetEdges returns the fake neighbours of segment, ordered. Never nil.
func (g *FakeGraph[S, V]) GetEdges(segment S, isOutgoing bool) []S {
	edges := g.ingoing
	if isOutgoing {
		edges = g.outgoing
	}
	set, ok := edges[segment]
	if !ok {
		return []S{}
	}
	return set.Items()
}

// GetVertex panics for an unregistered segment.
func (g *FakeGraph[S, V]) GetVertex(segment S) V {
	v, ok := g.segmentToVertex[segment]
	if !ok {
		panic(fmt.Sprintf("fake segment %v is not registered", segment))
	}
	return v
}

func (g *FakeGraph[S, V]) FindVertex(segment S) (V, bool) {
	v, ok := g.segmentToVertex[segment]
	return v, ok
}

func (g *FakeGraph[S, V]) ContainsSegment(segment S) bool {
	_, ok := g.segmentToVertex[segment]
	return ok
}

// FindSegment returns the segment registered for vertex.
func (g *FakeGraph[S, V]) FindSegment(vertex V) (S, bool) {
	s, ok := g.vertexToSegment[vertex]
	return s, ok
}

// FindReal returns the real segment fake is a slice of.
func (g *FakeGraph[S, V]) FindReal(fake S) (S, bool) {
	r, ok := g.fakeToReal[fake]
	return r, ok
}

// GetFake returns the fake slices of real, ordered. Never nil.
func (g *FakeGraph[S, V]) GetFake(real S) []S {
	set, ok := g.realToFake[real]
	if !ok {
		return []S{}
	}
	return set.Items()
}

func (g *FakeGraph[S, V]) GetSize() int {
	return len(g.segmentToVertex)
}

// ForEachSegment visits every registered segment in segment order.
func (g *FakeGraph[S, V]) ForEachSegment(fn func(s S, v V)) {
	all := newSegmentSet[S]()
	for s := range g.segmentToVertex {
		all.Set(s)
	}
	all.Scan(func(s S) bool {
		fn(s, g.segmentToVertex[s])
		return true
	})
}

// ConnectLoopToGuideSegments splices loopVertex (a zero length vertex lying on guidesSegment)
// into partsOfReal, the slices of guidesSegment and of its reversed copy that start or end
// at the loop point. Parts are registered as slices of the copy they run along.
func (g *FakeGraph[S, V]) ConnectLoopToGuideSegments(loopVertex V, guidesSegment S,
	guidesFrom, guidesTo datastructure.LatLonWithAltitude, partsOfReal []SegmentVertex[S, V]) {
	loopSegment, ok := g.vertexToSegment[loopVertex]
	if !ok {
		panic(fmt.Sprintf("loop vertex %v is not registered", loopVertex))
	}
	if _, ok := g.segmentToVertex[guidesSegment]; !ok {
		panic(fmt.Sprintf("guides segment %v is not registered", guidesSegment))
	}

	loopPoint := loopVertex.GetPointFrom()
	backwardReal := guidesSegment.Reversed()

	for _, part := range partsOfReal {
		newSegment, newVertex := part.Segment, part.Vertex

		directedReal := guidesSegment
		if newVertex.GetPointFrom() == guidesTo || newVertex.GetPointTo() == guidesFrom {
			directedReal = backwardReal
		}

		if g.addPartOfReal(directedReal, newSegment) {
			g.AddStandaloneVertex(newSegment, newVertex)
		}

		startsAtLoop := newVertex.GetPointFrom() == loopPoint
		endsAtLoop := newVertex.GetPointTo() == loopPoint
		if !startsAtLoop && !endsAtLoop {
			panic(fmt.Sprintf("part %v of guides segment %v does not touch the loop point", newVertex, guidesSegment))
		}

		to := newSegment
		if endsAtLoop {
			to = loopSegment
		}
		from := newSegment
		if startsAtLoop {
			from = loopSegment
		}
		g.edgeSet(g.outgoing, from).Set(to)
		g.edgeSet(g.ingoing, to).Set(from)
	}
}
