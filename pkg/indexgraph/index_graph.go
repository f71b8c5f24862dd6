package indexgraph

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
)

type SegmentEdge = routingalgorithm.Edge[datastructure.Segment, datastructure.RouteWeight]

// PreviousFeatures yields the features travelled before the expanded segment, nearest first.
// previous(0) is the feature of the expanded segment itself. Returns false past the chain end.
type PreviousFeatures func(i int) (datastructure.FeatureID, bool)

// IndexGraph is the road graph of one tile seen by one query. Vertices are directed road
// segments, an edge from -> to costs the weight of `to` plus the turn penalties.
type IndexGraph struct {
	tile      *tile.Tile
	estimator EdgeEstimator

	// forked from the tile, joints added by this query live here.
	jointIndex    *joint.JointIndex
	dynamicJoints map[datastructure.RoadPoint]joint.JointID
}

func NewIndexGraph(t *tile.Tile, estimator EdgeEstimator) *IndexGraph {
	return &IndexGraph{
		tile:          t,
		estimator:     estimator,
		jointIndex:    t.JointIndex().Fork(),
		dynamicJoints: make(map[datastructure.RoadPoint]joint.JointID),
	}
}

func (g *IndexGraph) Tile() *tile.Tile {
	return g.tile
}

func (g *IndexGraph) GetJointID(rp datastructure.RoadPoint) joint.JointID {
	if id, ok := g.dynamicJoints[rp]; ok {
		return id
	}
	return g.tile.RoadIndex().GetJointID(rp)
}

// JoinPoints makes a and b one vertex for this query. When both already are joints the points
// of the joint of b move to the joint of a.
func (g *IndexGraph) JoinPoints(a, b datastructure.RoadPoint) joint.JointID {
	ja, jb := g.GetJointID(a), g.GetJointID(b)
	switch {
	case ja != joint.InvalidJointID && ja == jb:
		return ja
	case ja == joint.InvalidJointID && jb == joint.InvalidJointID:
		id := g.jointIndex.InsertJoint(a, b)
		g.dynamicJoints[a] = id
		g.dynamicJoints[b] = id
		return id
	case ja == joint.InvalidJointID:
		g.jointIndex.AppendToJoint(jb, a)
		g.dynamicJoints[a] = jb
		return jb
	case jb == joint.InvalidJointID:
		g.jointIndex.AppendToJoint(ja, b)
		g.dynamicJoints[b] = ja
		return ja
	}

	moved := make([]datastructure.RoadPoint, 0, 4)
	g.jointIndex.ForEachPoint(jb, func(p datastructure.RoadPoint) {
		moved = append(moved, p)
	})
	for _, p := range moved {
		g.jointIndex.AppendToJoint(ja, p)
		g.dynamicJoints[p] = ja
	}
	return ja
}

func (g *IndexGraph) forEachJointPoint(rp datastructure.RoadPoint, fn func(p datastructure.RoadPoint)) {
	id := g.GetJointID(rp)
	if id == joint.InvalidJointID {
		fn(rp)
		return
	}
	g.jointIndex.ForEachPoint(id, fn)
}

// forEachAdjacentSegment visits the segments leaving (isOutgoing) or entering rp along its own road.
func (g *IndexGraph) forEachAdjacentSegment(rp datastructure.RoadPoint, isOutgoing bool, fn func(s datastructure.Segment)) {
	road, ok := g.tile.GetRoad(rp.Feature)
	if !ok || !g.estimator.IsAccessible(road) {
		return
	}
	oneWay := g.estimator.IsOneWay(road)
	numPoints := uint32(len(road.Points))
	tileID := g.tile.ID()

	if isOutgoing {
		if rp.PointID+1 < numPoints {
			fn(datastructure.NewSegment(tileID, rp.Feature, rp.PointID, true))
		}
		if rp.PointID > 0 && !oneWay {
			fn(datastructure.NewSegment(tileID, rp.Feature, rp.PointID-1, false))
		}
		return
	}
	if rp.PointID > 0 {
		fn(datastructure.NewSegment(tileID, rp.Feature, rp.PointID-1, true))
	}
	if rp.PointID+1 < numPoints && !oneWay {
		fn(datastructure.NewSegment(tileID, rp.Feature, rp.PointID, false))
	}
}

// GetEdgeList appends the neighbours of from: the segments leaving its front joint (isOutgoing)
// or entering its back joint. Restricted turns are skipped, so are car u-turns in the middle of
// a road. previous may be nil, then turn restrictions are not checked.
func (g *IndexGraph) GetEdgeList(from datastructure.Segment, isOutgoing bool, previous PreviousFeatures, edges *[]SegmentEdge) {
	rp := from.GetRoadPoint(isOutgoing)
	g.forEachJointPoint(rp, func(p datastructure.RoadPoint) {
		g.forEachAdjacentSegment(p, isOutgoing, func(to datastructure.Segment) {
			if g.isTurnRestricted(from, to, rp, isOutgoing, previous) {
				return
			}
			target := to
			if !isOutgoing {
				target = from
			}
			weight := g.CalcSegmentWeight(target).Add(g.turnPenalty(from, to))
			*edges = append(*edges, routingalgorithm.NewEdge(to, weight))
		})
	})
}

func (g *IndexGraph) isTurnRestricted(from, to datastructure.Segment, rp datastructure.RoadPoint, isOutgoing bool,
	previous PreviousFeatures) bool {
	restrictions := g.tile.Restrictions()
	if from.IsUTurn(to) {
		road := g.tile.MustGetRoad(from.Feature)
		last := uint32(len(road.Points) - 1)
		if !g.estimator.TurnsAroundAnywhere() && rp.PointID != 0 && rp.PointID != last &&
			g.GetJointID(rp) == joint.InvalidJointID {
			return true
		}
		return restrictions.IsUTurnRestricted(from.Feature, rp.PointID, last)
	}
	if previous == nil || to.Feature == from.Feature {
		return false
	}
	return restrictions.IsRestricted(to.Feature, isOutgoing, previous)
}

// turnPenalty of moving between from and to in any direction: u-turns and entering or leaving a
// zone without pass-through.
func (g *IndexGraph) turnPenalty(from, to datastructure.Segment) datastructure.RouteWeight {
	var penalty datastructure.RouteWeight
	if from.IsUTurn(to) {
		penalty.Weight += g.estimator.GetUTurnPenalty()
	}
	if g.tile.MustGetRoad(from.Feature).PassThroughAllowed != g.tile.MustGetRoad(to.Feature).PassThroughAllowed {
		penalty.NumPassThroughChanges++
	}
	return penalty
}

func (g *IndexGraph) CalcSegmentWeight(s datastructure.Segment) datastructure.RouteWeight {
	g.checkTile(s)
	road := g.tile.MustGetRoad(s.Feature)
	back, front := g.tile.GetSegmentPoints(s)
	return datastructure.NewRouteWeight(g.estimator.CalcSegmentWeight(back, front, road))
}

// GetPoint returns the front or the back point of s.
func (g *IndexGraph) GetPoint(s datastructure.Segment, front bool) datastructure.LatLonWithAltitude {
	g.checkTile(s)
	return g.tile.GetPoint(s.GetRoadPoint(front))
}

func (g *IndexGraph) GetRoad(s datastructure.Segment) *tile.Road {
	g.checkTile(s)
	return g.tile.MustGetRoad(s.Feature)
}

func (g *IndexGraph) checkTile(s datastructure.Segment) {
	if s.Tile != g.tile.ID() {
		panic(fmt.Sprintf("segment %v asked from index graph of tile %d", s, g.tile.ID()))
	}
}
