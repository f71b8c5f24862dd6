package indexgraph

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/fakegraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/guides"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/transit"
)

// Endpoint is the start or the finish of one leg.
type Endpoint struct {
	Point datastructure.LatLonWithAltitude
	// Ending projections onto the roads. When the point lies on a guide track the origin of
	// the ending is the junction on the track.
	Ending  fakegraph.FakeEnding
	Guide   guides.Projection
	OnGuide bool
}

// Starter is the graph searched by one leg: the world graph plus the fake segments of the leg
// endpoints, the guides overlay and the transit overlay. Both overlays are optional.
type Starter struct {
	world     *WorldGraph
	estimator EdgeEstimator
	alloc     *datastructure.IDAllocator

	// start/finish fakes of this leg, guide tracks appended.
	fake    *fakegraph.Graph
	guides  *guides.Graph
	transit *transit.Graph

	start  datastructure.Segment
	finish datastructure.Segment

	// links between the leg fakes and the transit overlay, which is shared by all legs.
	outLinks map[datastructure.Segment][]datastructure.Segment
	inLinks  map[datastructure.Segment][]datastructure.Segment

	forwardParents  map[datastructure.Segment]datastructure.Segment
	backwardParents map[datastructure.Segment]datastructure.Segment
}

func NewStarter(world *WorldGraph, alloc *datastructure.IDAllocator, guidesGraph *guides.Graph, transitGraph *transit.Graph,
	start, finish Endpoint) *Starter {
	s := &Starter{
		world:     world,
		estimator: world.Estimator(),
		alloc:     alloc,
		fake:      fakegraph.NewGraph(),
		guides:    guidesGraph,
		transit:   transitGraph,
		outLinks:  make(map[datastructure.Segment][]datastructure.Segment),
		inLinks:   make(map[datastructure.Segment][]datastructure.Segment),
	}
	if guidesGraph != nil {
		s.fake.Append(guidesGraph.Fake())
	}

	var startProjections, finishProjections []datastructure.Segment
	s.start, startProjections = s.addEndpoint(start, true)
	s.finish, finishProjections = s.addEndpoint(finish, false)

	// overlay endings first, so the start and finish parts added below are not taken for them.
	s.linkOverlayEndings(start.Ending.Projections, startProjections, true, finishProjections)
	s.linkOverlayEndings(finish.Ending.Projections, finishProjections, false, startProjections)
	s.addDirectParts(start, finish, startProjections, finishProjections)
	return s
}

// addEndpoint adds the loop segment of ep (zero length) and grafts its ending onto it.
func (s *Starter) addEndpoint(ep Endpoint, isStart bool) (datastructure.Segment, []datastructure.Segment) {
	var loop datastructure.Segment
	ending := ep.Ending
	if ep.OnGuide {
		loop = guides.ConnectLoop(s.fake, s.alloc, ep.Guide)
		ending.OriginJunction = ep.Guide.Junction
	} else {
		loop = s.alloc.Next(datastructure.FakeKindQuery)
		s.fake.AddStandaloneVertex(loop, fakegraph.NewFakeVertex(datastructure.FakeTileID, ep.Point, ep.Point, fakegraph.PureFake))
		ending.OriginJunction = ep.Point
	}
	projections := fakegraph.AddEnding(s.fake, s.alloc, datastructure.FakeKindQuery, loop, ending, isStart)
	return loop, projections
}

// addDirectParts joins start and finish lying on the same segment, otherwise the search could only
// go from one to the other by leaving the segment and coming back.
func (s *Starter) addDirectParts(start, finish Endpoint, startProjections, finishProjections []datastructure.Segment) {
	for i, sp := range start.Ending.Projections {
		for j, fp := range finish.Ending.Projections {
			if !sameSegment(sp.Segment, fp.Segment) {
				continue
			}
			s.addDirectPart(startProjections[i], finishProjections[j], sp.Junction, fp.Junction,
				sp.SegmentBack, sp.Segment, sp.IsOneWay)
		}
	}

	if start.OnGuide && finish.OnGuide && sameSegment(start.Guide.Segment, finish.Guide.Segment) {
		s.addDirectPart(s.start, s.finish, start.Guide.Junction, finish.Guide.Junction,
			start.Guide.From, start.Guide.Segment, false)
	}
}

// addDirectPart joins from, ending at fromJunction, to to, starting at toJunction, with a slice of
// real between the two junctions. back is the back point of real.
func (s *Starter) addDirectPart(from, to datastructure.Segment, fromJunction, toJunction, back datastructure.LatLonWithAltitude,
	real datastructure.Segment, isOneWay bool) {
	if fromJunction == toJunction {
		s.connect(from, to)
		return
	}
	directed := real
	if geo.DistanceMeters(back, fromJunction) >= geo.DistanceMeters(back, toJunction) {
		if isOneWay {
			return
		}
		directed = real.Reversed()
	}
	part := fakegraph.AddSlice(s.fake, s.alloc, datastructure.FakeKindQuery, fromJunction, toJunction, directed)
	s.connect(from, part)
	s.connect(part, to)
}

// connect links two fakes of the leg. Links touching the transit overlay are kept by the starter.
func (s *Starter) connect(from, to datastructure.Segment) {
	if s.fake.ContainsSegment(from) && s.fake.ContainsSegment(to) {
		s.fake.AddConnection(from, to)
		return
	}
	s.outLinks[from] = append(s.outLinks[from], to)
	s.inLinks[to] = append(s.inLinks[to], from)
}

// overlayJunction is the projection segment of a gate or track ending and its junction on the road.
type overlayJunction struct {
	segment  datastructure.Segment
	junction datastructure.LatLonWithAltitude
}

// overlayEndings returns the gate and track endings grafted onto real in either direction. With
// arriving the projection segments leaving the road at their junction, otherwise the ones joining it.
func (s *Starter) overlayEndings(real datastructure.Segment, arriving bool, skip map[datastructure.Segment]struct{}) []overlayJunction {
	seen := make(map[datastructure.Segment]struct{})
	result := make([]overlayJunction, 0)
	for _, overlay := range s.overlays() {
		for _, directed := range []datastructure.Segment{real, real.Reversed()} {
			for _, slice := range overlay.GetFake(directed) {
				part := overlay.GetVertex(slice)
				junction := part.From
				if arriving {
					junction = part.To
				}
				for _, n := range overlay.GetEdges(slice, arriving) {
					if _, ok := skip[n]; ok {
						continue
					}
					if _, ok := seen[n]; ok {
						continue
					}
					v := overlay.GetVertex(n)
					if v.Type != fakegraph.PureFake || v.GetJunction(!arriving) != junction {
						continue
					}
					seen[n] = struct{}{}
					result = append(result, overlayJunction{segment: n, junction: junction})
				}
			}
		}
	}
	return result
}

// linkOverlayEndings joins the projections of the start (isStart) or the finish with the gate and
// track endings on the same road segment. Without it they meet only through the segment ends.
func (s *Starter) linkOverlayEndings(projections []fakegraph.Projection, projectionSegments []datastructure.Segment,
	isStart bool, other []datastructure.Segment) {
	skip := make(map[datastructure.Segment]struct{}, len(projectionSegments)+len(other))
	for _, seg := range projectionSegments {
		skip[seg] = struct{}{}
	}
	for _, seg := range other {
		skip[seg] = struct{}{}
	}

	for i, proj := range projections {
		for _, ending := range s.overlayEndings(proj.Segment, isStart, skip) {
			if isStart {
				s.addDirectPart(projectionSegments[i], ending.segment, proj.Junction, ending.junction,
					proj.SegmentBack, proj.Segment, proj.IsOneWay)
			} else {
				s.addDirectPart(ending.segment, projectionSegments[i], ending.junction, proj.Junction,
					proj.SegmentBack, proj.Segment, proj.IsOneWay)
			}
		}
	}
}

func sameSegment(a, b datastructure.Segment) bool {
	return a.Tile == b.Tile && a.Feature == b.Feature && a.SegmentIdx == b.SegmentIdx
}

func (s *Starter) Start() datastructure.Segment {
	return s.start
}

func (s *Starter) Finish() datastructure.Segment {
	return s.finish
}

// Fake returns the fake graph of this leg (guides included, transit not).
func (s *Starter) Fake() *fakegraph.Graph {
	return s.fake
}

func (s *Starter) overlay(seg datastructure.Segment) *fakegraph.Graph {
	if seg.IsTransitFake() {
		if s.transit == nil {
			panic(fmt.Sprintf("transit fake %v without transit graph", seg))
		}
		return s.transit.Fake()
	}
	return s.fake
}

func (s *Starter) overlays() []*fakegraph.Graph {
	if s.transit == nil {
		return []*fakegraph.Graph{s.fake}
	}
	return []*fakegraph.Graph{s.fake, s.transit.Fake()}
}

// GetPoint returns the front or the back point of any segment of the leg.
func (s *Starter) GetPoint(seg datastructure.Segment, front bool) datastructure.LatLonWithAltitude {
	if !seg.IsFake() {
		return s.world.GetPoint(seg, front)
	}
	return s.overlay(seg).GetVertex(seg).GetJunction(front)
}

// FindReal returns the real (or guide) segment seg is a slice of.
func (s *Starter) FindReal(seg datastructure.Segment) (datastructure.Segment, bool) {
	if !seg.IsFake() {
		return datastructure.Segment{}, false
	}
	return s.overlay(seg).FindReal(seg)
}

// roadSegment returns the road segment seg runs along, seg itself when it is real.
func (s *Starter) roadSegment(seg datastructure.Segment) (datastructure.Segment, bool) {
	if !seg.IsFake() {
		return seg, true
	}
	real, ok := s.overlay(seg).FindReal(seg)
	if !ok || real.IsFake() {
		return datastructure.Segment{}, false
	}
	return real, true
}

func (s *Starter) CalcSegmentWeight(seg datastructure.Segment) datastructure.RouteWeight {
	if !seg.IsFake() {
		return s.world.CalcSegmentWeight(seg)
	}
	if seg.IsTransitFake() {
		if w, ok := s.transit.GetWeight(seg); ok {
			return w
		}
	}
	if seg.IsGuidesFake() && s.guides != nil {
		if w, ok := s.guides.GetWeight(seg); ok {
			return w
		}
	}

	overlay := s.overlay(seg)
	vertex := overlay.GetVertex(seg)
	if vertex.Type == fakegraph.PureFake {
		return datastructure.NewRouteWeight(s.estimator.CalcOffroad(vertex.From, vertex.To))
	}

	real, ok := overlay.FindReal(seg)
	if !ok {
		panic(fmt.Sprintf("part of real fake %v has no real segment", seg))
	}
	fullLength := geo.DistanceMeters(s.GetPoint(real, false), s.GetPoint(real, true))
	if fullLength == 0 {
		return datastructure.RouteWeight{}
	}
	partLength := geo.DistanceMeters(vertex.From, vertex.To)
	return s.CalcSegmentWeight(real).Scale(partLength / fullLength)
}

func (s *Starter) transferPenalty(from, to datastructure.Segment, isOutgoing bool) datastructure.RouteWeight {
	if s.transit == nil {
		return datastructure.RouteWeight{}
	}
	if !isOutgoing {
		from, to = to, from
	}
	return s.transit.GetTransferPenalty(from, to)
}

// edgeWeight of the edge between from and to, to is the neighbour found by the expansion of from.
func (s *Starter) edgeWeight(from, to datastructure.Segment, isOutgoing bool) datastructure.RouteWeight {
	target := to
	if !isOutgoing {
		target = from
	}
	return s.CalcSegmentWeight(target).Add(s.transferPenalty(from, to, isOutgoing))
}

func (s *Starter) HeuristicCostEstimate(from, to datastructure.Segment) datastructure.RouteWeight {
	return datastructure.NewRouteWeight(s.estimator.CalcHeuristic(s.GetPoint(from, true), s.GetPoint(to, true)))
}

func (s *Starter) GetOutgoingEdgesList(v datastructure.Segment, edges *[]SegmentEdge) {
	s.getEdgesList(v, true, edges)
}

func (s *Starter) GetIngoingEdgesList(v datastructure.Segment, edges *[]SegmentEdge) {
	s.getEdgesList(v, false, edges)
}

// getEdgesList: fake neighbours of a fake segment, the real neighbours of the real segment when
// the fake ends (starts) where its real segment does, and the fake slices of all neighbours that
// are attached to v.
func (s *Starter) getEdgesList(v datastructure.Segment, isOutgoing bool, edges *[]SegmentEdge) {
	*edges = (*edges)[:0]
	if !v.IsFake() {
		s.appendRealEdges(v, v, isOutgoing, edges)
		s.appendFakeSlices(0, isOutgoing, edges)
		return
	}

	overlay := s.overlay(v)
	for _, to := range overlay.GetEdges(v, isOutgoing) {
		*edges = append(*edges, routingalgorithm.NewEdge(to, s.edgeWeight(v, to, isOutgoing)))
	}
	links := s.inLinks
	if isOutgoing {
		links = s.outLinks
	}
	for _, to := range links[v] {
		*edges = append(*edges, routingalgorithm.NewEdge(to, s.edgeWeight(v, to, isOutgoing)))
	}

	real, ok := overlay.FindReal(v)
	if ok && s.GetPoint(real, isOutgoing) == overlay.GetVertex(v).GetJunction(isOutgoing) {
		s.appendRealEdges(v, real, isOutgoing, edges)
	}
	s.appendFakeSlices(0, isOutgoing, edges)
}

// appendRealEdges appends the neighbours of real on behalf of v, a real segment or a fake slice of it.
func (s *Starter) appendRealEdges(v, real datastructure.Segment, isOutgoing bool, edges *[]SegmentEdge) {
	if real.IsGuidesFake() {
		for _, to := range s.fake.GetEdges(real, isOutgoing) {
			*edges = append(*edges, routingalgorithm.NewEdge(to, s.edgeWeight(v, to, isOutgoing)))
		}
		return
	}

	first := len(*edges)
	s.world.GetEdgeList(real, isOutgoing, s.previousFeatures(v, isOutgoing), edges)
	if v == real || isOutgoing {
		return
	}
	// ingoing edges cost the weight of the expanded segment, v is only a part of real.
	realWeight, vWeight := s.CalcSegmentWeight(real), s.CalcSegmentWeight(v)
	for i := first; i < len(*edges); i++ {
		(*edges)[i].Weight = (*edges)[i].Weight.Sub(realWeight).Add(vWeight)
	}
}

// appendFakeSlices appends, for every neighbour from index first on, its fake slices that start at
// the neighbour back (outgoing) or end at its front.
func (s *Starter) appendFakeSlices(first int, isOutgoing bool, edges *[]SegmentEdge) {
	last := len(*edges)
	for i := first; i < last; i++ {
		e := (*edges)[i]
		junction := s.GetPoint(e.Target, !isOutgoing)
		for _, overlay := range s.overlays() {
			for _, slice := range overlay.GetFake(e.Target) {
				if overlay.GetVertex(slice).GetJunction(!isOutgoing) != junction {
					continue
				}
				weight := e.Weight
				if isOutgoing {
					weight = weight.Sub(s.CalcSegmentWeight(e.Target)).Add(s.CalcSegmentWeight(slice))
				}
				*edges = append(*edges, routingalgorithm.NewEdge(slice, weight))
			}
		}
	}
}

func (s *Starter) SetAStarParents(forward bool, parents map[datastructure.Segment]datastructure.Segment) {
	if forward {
		s.forwardParents = parents
	} else {
		s.backwardParents = parents
	}
}

func (s *Starter) DropAStarParents() {
	s.forwardParents = nil
	s.backwardParents = nil
}

func (s *Starter) previousFeatures(v datastructure.Segment, isOutgoing bool) PreviousFeatures {
	parents := s.backwardParents
	if isOutgoing {
		parents = s.forwardParents
	}
	return newFeatureChain(s, parents, v).get
}

// AreWavesConnectible checks the restrictions that span the meeting point of the two waves.
// Restrictions on one side only were already checked by that wave.
func (s *Starter) AreWavesConnectible(forwardParents map[datastructure.Segment]datastructure.Segment, common datastructure.Segment,
	backwardParents map[datastructure.Segment]datastructure.Segment) bool {
	real, ok := s.roadSegment(common)
	if !ok {
		return true
	}
	restrictions := s.world.GetIndexGraph(real.Tile).Tile().Restrictions()
	maxLength := restrictions.MaxLength()
	if maxLength < 2 {
		return true
	}

	forward := newFeatureChain(s, forwardParents, common).collect(maxLength)
	backward := newFeatureChain(s, backwardParents, common).collect(maxLength)

	// forward features reversed, then the backward ones after common.
	features := make([]datastructure.FeatureID, 0, len(forward)+len(backward))
	for i := len(forward) - 1; i >= 0; i-- {
		features = append(features, forward[i])
	}
	if len(backward) > 0 {
		features = append(features, backward[1:]...)
	}

	for j := len(forward); j < len(features); j++ {
		at := j
		previous := func(i int) (datastructure.FeatureID, bool) {
			idx := at - 1 - i
			if idx < 0 {
				return 0, false
			}
			return features[idx], true
		}
		if restrictions.IsRestricted(features[j], true, previous) {
			return false
		}
	}
	return true
}

// featureChain walks the parents of a wave from one segment and yields the features of the
// road segments on the way, consecutive repeats collapsed. It stops at the first segment that is
// not on a road of the starting tile.
type featureChain struct {
	starter  *Starter
	parents  map[datastructure.Segment]datastructure.Segment
	cur      datastructure.Segment
	tile     datastructure.TileID
	started  bool
	done     bool
	features []datastructure.FeatureID
}

func newFeatureChain(s *Starter, parents map[datastructure.Segment]datastructure.Segment, from datastructure.Segment) *featureChain {
	return &featureChain{
		starter:  s,
		parents:  parents,
		cur:      from,
		features: make([]datastructure.FeatureID, 0, 4),
	}
}

func (c *featureChain) step() {
	real, ok := c.starter.roadSegment(c.cur)
	if !ok || (c.started && real.Tile != c.tile) {
		c.done = true
		return
	}
	if !c.started {
		c.started = true
		c.tile = real.Tile
	}
	if n := len(c.features); n == 0 || c.features[n-1] != real.Feature {
		c.features = append(c.features, real.Feature)
	}

	parent, ok := c.parents[c.cur]
	if !ok || parent == c.cur {
		c.done = true
		return
	}
	c.cur = parent
}

func (c *featureChain) get(i int) (datastructure.FeatureID, bool) {
	for len(c.features) <= i && !c.done {
		c.step()
	}
	if i < len(c.features) {
		return c.features[i], true
	}
	return 0, false
}

func (c *featureChain) collect(n int) []datastructure.FeatureID {
	c.get(n - 1)
	return c.features
}

var _ routingalgorithm.AStarGraph[datastructure.Segment, datastructure.RouteWeight] = (*Starter)(nil)
