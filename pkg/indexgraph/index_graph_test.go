package indexgraph

import (
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crossTile datastructure.TileID = 1

func road(feature datastructure.FeatureID, nodes []int64, points ...datastructure.LatLonWithAltitude) tile.Road {
	return tile.Road{
		Feature:            feature,
		Points:             points,
		NodeIDs:            nodes,
		Class:              "residential",
		PassThroughAllowed: true,
		Pedestrian:         true,
		Car:                true,
	}
}

/*
cross at X, feature 1 runs west to east, feature 2 south to north:

	        N
	        |
	W ----- X ----- E
	        |
	        S
*/
func crossData() *tile.Data {
	ll := datastructure.NewLatLon
	return &tile.Data{
		ID:   crossTile,
		Name: "cross",
		Roads: []tile.Road{
			road(1, []int64{1, 2, 3}, ll(0, -0.01), ll(0, 0), ll(0, 0.01)),
			road(2, []int64{4, 2, 5}, ll(-0.01, 0), ll(0, 0), ll(0.01, 0)),
		},
	}
}

func newTile(t *testing.T, data *tile.Data) *tile.Tile {
	tl, err := tile.NewTile(data)
	require.NoError(t, err)
	return tl
}

func seg(feature datastructure.FeatureID, idx uint32, forward bool) datastructure.Segment {
	return datastructure.NewSegment(crossTile, feature, idx, forward)
}

func chain(features ...datastructure.FeatureID) PreviousFeatures {
	return func(i int) (datastructure.FeatureID, bool) {
		if i >= len(features) {
			return 0, false
		}
		return features[i], true
	}
}

func targets(edges []SegmentEdge) []datastructure.Segment {
	result := make([]datastructure.Segment, 0, len(edges))
	for _, e := range edges {
		result = append(result, e.Target)
	}
	return result
}

func findEdge(t *testing.T, edges []SegmentEdge, target datastructure.Segment) SegmentEdge {
	for _, e := range edges {
		if e.Target == target {
			return e
		}
	}
	require.Failf(t, "edge not found", "no edge to %v in %v", target, targets(edges))
	return SegmentEdge{}
}

func TestGetEdgeListOutgoing(t *testing.T) {
	g := NewIndexGraph(newTile(t, crossData()), NewCarEstimator(DefaultUTurnPenalty, 0))
	westToX := seg(1, 0, true)

	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(westToX, true, nil, &edges)
	assert.ElementsMatch(t, []datastructure.Segment{
		seg(1, 1, true), seg(1, 0, false), seg(2, 1, true), seg(2, 0, false),
	}, targets(edges))

	straight := findEdge(t, edges, seg(1, 1, true))
	assert.InDelta(t, g.CalcSegmentWeight(seg(1, 1, true)).Weight, straight.Weight.Weight, 1e-9)

	uTurn := findEdge(t, edges, seg(1, 0, false))
	assert.InDelta(t, g.CalcSegmentWeight(seg(1, 0, false)).Weight+DefaultUTurnPenalty, uTurn.Weight.Weight, 1e-9)

	// 1 km on a residential road at 30 km/h.
	want := geo.DistanceMeters(datastructure.NewLatLon(0, 0), datastructure.NewLatLon(0, 0.01)) / (30 / 3.6)
	assert.InDelta(t, want, straight.Weight.Weight, 1e-9)
}

func TestGetEdgeListRestriction(t *testing.T) {
	data := crossData()
	data.Restrictions = []restriction.Restriction{restriction.NewRestriction(restriction.KindNo, 1, 2)}
	g := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))

	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(seg(1, 0, true), true, chain(1), &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(1, 1, true), seg(1, 0, false)}, targets(edges))

	// the turn 2 -> 1 is allowed.
	edges = edges[:0]
	g.GetEdgeList(seg(2, 0, true), true, chain(2), &edges)
	assert.Len(t, edges, 4)

	// backward: expanding X -> N, the segments entering X on feature 1 are restricted.
	edges = edges[:0]
	xToNorth := seg(2, 1, true)
	g.GetEdgeList(xToNorth, false, chain(2), &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(2, 0, true), seg(2, 1, false)}, targets(edges))
	// ingoing edges cost the expanded segment.
	e := findEdge(t, edges, seg(2, 0, true))
	assert.InDelta(t, g.CalcSegmentWeight(xToNorth).Weight, e.Weight.Weight, 1e-9)
}

func TestGetEdgeListOneWay(t *testing.T) {
	data := crossData()
	data.Roads[1].OneWay = true

	car := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))
	edges := make([]SegmentEdge, 0)
	car.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(1, 1, true), seg(1, 0, false), seg(2, 1, true)}, targets(edges))

	pedestrian := NewIndexGraph(newTile(t, data), NewPedestrianEstimator(0, 0))
	edges = edges[:0]
	pedestrian.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.Len(t, edges, 4)
	// walking u-turns are free.
	uTurn := findEdge(t, edges, seg(1, 0, false))
	assert.InDelta(t, pedestrian.CalcSegmentWeight(seg(1, 0, false)).Weight, uTurn.Weight.Weight, 1e-9)
}

func TestGetEdgeListInaccessible(t *testing.T) {
	data := crossData()
	data.Roads[1].Car = false
	g := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))

	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(1, 1, true), seg(1, 0, false)}, targets(edges))
}

func TestGetEdgeListNoUTurn(t *testing.T) {
	data := crossData()
	data.UTurnRestrictions = []restriction.UTurnRestriction{
		restriction.NewUTurnRestriction(restriction.KindNoUTurn, 1, false),
	}
	g := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))

	// E is the last point of feature 1, the only way out of it is the forbidden u-turn.
	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(seg(1, 1, true), true, nil, &edges)
	assert.Empty(t, edges)

	// at W the u-turn is allowed.
	g.GetEdgeList(seg(1, 0, false), true, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 0, true)}, targets(edges))
}

func TestGetEdgeListPassThrough(t *testing.T) {
	data := crossData()
	data.Roads[1].PassThroughAllowed = false
	g := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))

	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.Equal(t, int32(1), findEdge(t, edges, seg(2, 1, true)).Weight.NumPassThroughChanges)
	assert.Zero(t, findEdge(t, edges, seg(1, 1, true)).Weight.NumPassThroughChanges)
}

func TestJoinPoints(t *testing.T) {
	ll := datastructure.NewLatLon
	data := &tile.Data{
		ID: crossTile,
		Roads: []tile.Road{
			road(1, []int64{1, 2, 3}, ll(0, 0), ll(0, 0.005), ll(0, 0.01)),
			road(2, []int64{4, 5}, ll(0, 0.005), ll(0.01, 0.005)),
			road(3, []int64{6, 7}, ll(0.01, 0.01), ll(0.02, 0.01)),
		},
	}
	tl := newTile(t, data)
	g := NewIndexGraph(tl, NewCarEstimator(DefaultUTurnPenalty, 0))

	// point 1 of feature 1 is not a joint, road 2 starts there without sharing the node.
	mid := datastructure.NewRoadPoint(1, 1)
	require.Equal(t, joint.InvalidJointID, g.GetJointID(mid))
	// cars do not turn around there.
	edges := make([]SegmentEdge, 0)
	g.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 1, true)}, targets(edges))

	id := g.JoinPoints(mid, datastructure.NewRoadPoint(2, 0))
	assert.NotEqual(t, joint.InvalidJointID, id)
	assert.Equal(t, id, g.GetJointID(datastructure.NewRoadPoint(2, 0)))

	edges = edges[:0]
	g.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(1, 1, true), seg(1, 0, false), seg(2, 0, true)}, targets(edges))

	// both ends already joints: the end of feature 1 and the start of feature 3 merge.
	end, start3 := datastructure.NewRoadPoint(1, 2), datastructure.NewRoadPoint(3, 0)
	require.NotEqual(t, g.GetJointID(end), g.GetJointID(start3))
	merged := g.JoinPoints(end, start3)
	assert.Equal(t, merged, g.GetJointID(start3))
	edges = edges[:0]
	g.GetEdgeList(seg(1, 1, true), true, nil, &edges)
	assert.Contains(t, targets(edges), seg(3, 0, true))
	assert.Equal(t, merged, g.JoinPoints(end, start3))

	// the tile itself is untouched, another query does not see the joins.
	other := NewIndexGraph(tl, NewCarEstimator(DefaultUTurnPenalty, 0))
	assert.Equal(t, joint.InvalidJointID, other.GetJointID(mid))
	edges = edges[:0]
	other.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.Len(t, edges, 1)
}

func TestGetEdgeListUTurnInsideRoad(t *testing.T) {
	ll := datastructure.NewLatLon
	data := &tile.Data{
		ID:    crossTile,
		Roads: []tile.Road{road(1, []int64{1, 2, 3}, ll(0, 0), ll(0, 0.005), ll(0, 0.01))},
	}

	car := NewIndexGraph(newTile(t, data), NewCarEstimator(DefaultUTurnPenalty, 0))
	edges := make([]SegmentEdge, 0)
	car.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 1, true)}, targets(edges))
	edges = edges[:0]
	car.GetEdgeList(seg(1, 1, true), false, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 0, true)}, targets(edges))

	// the road ends still allow it.
	edges = edges[:0]
	car.GetEdgeList(seg(1, 1, true), true, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 1, false)}, targets(edges))
	edges = edges[:0]
	car.GetEdgeList(seg(1, 0, false), true, nil, &edges)
	assert.Equal(t, []datastructure.Segment{seg(1, 0, true)}, targets(edges))

	walk := NewIndexGraph(newTile(t, data), NewPedestrianEstimator(0, 0))
	edges = edges[:0]
	walk.GetEdgeList(seg(1, 0, true), true, nil, &edges)
	assert.ElementsMatch(t, []datastructure.Segment{seg(1, 1, true), seg(1, 0, false)}, targets(edges))
}

func TestCheckTilePanics(t *testing.T) {
	g := NewIndexGraph(newTile(t, crossData()), NewCarEstimator(DefaultUTurnPenalty, 0))
	assert.Panics(t, func() {
		g.CalcSegmentWeight(datastructure.NewSegment(crossTile+1, 1, 0, true))
	})
}

func TestEstimators(t *testing.T) {
	ll := datastructure.NewLatLon
	a, b := ll(0, 0), ll(0, 0.01)
	meters := geo.DistanceMeters(a, b)

	car := NewCarEstimator(DefaultUTurnPenalty, 0)
	motorway := &tile.Road{Class: "motorway", Car: true}
	limited := &tile.Road{Class: "motorway", MaxSpeed: 50, Car: true}
	assert.InDelta(t, meters/(datastructure.MaxRoadSpeedKMH/3.6), car.CalcSegmentWeight(a, b, motorway), 1e-9)
	assert.InDelta(t, meters/(50/3.6), car.CalcSegmentWeight(a, b, limited), 1e-9)
	assert.InDelta(t, meters/(DefaultOffroadSpeedKMH/3.6), car.CalcOffroad(a, b), 1e-9)
	assert.LessOrEqual(t, car.CalcHeuristic(a, b), car.CalcSegmentWeight(a, b, motorway)+1e-9)
	assert.True(t, car.IsOneWay(&tile.Road{OneWay: true}))
	assert.False(t, car.IsAccessible(&tile.Road{Pedestrian: true}))

	walk := NewPedestrianEstimator(0, 40)
	assert.InDelta(t, meters/(DefaultPedestrianSpeedKMH/3.6), walk.CalcSegmentWeight(a, b, motorway), 1e-9)
	assert.InDelta(t, meters/(40/3.6), walk.CalcHeuristic(a, b), 1e-9)
	assert.Equal(t, 40.0, walk.MaxSpeed())
	assert.False(t, walk.IsOneWay(&tile.Road{OneWay: true}))
	assert.Zero(t, walk.GetUTurnPenalty())
	assert.True(t, walk.TurnsAroundAnywhere())
	assert.False(t, car.TurnsAroundAnywhere())

	// the heuristic speed never drops below the walking speed.
	assert.Equal(t, 7.0, NewPedestrianEstimator(7, 3).MaxSpeed())
}
