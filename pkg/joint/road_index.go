package joint

import (
	"math"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type JointID uint32

const (
	InvalidJointID JointID = math.MaxUint32
)

// Joint is the set of road points sharing one graph vertex.
type Joint []datastructure.RoadPoint

// RoadJointIDs maps point index -> joint of one feature.
type RoadJointIDs struct {
	jointIDs []JointID
}

func NewRoadJointIDs() *RoadJointIDs {
	return &RoadJointIDs{jointIDs: make([]JointID, 0)}
}

func (r *RoadJointIDs) GetJointID(pointID uint32) JointID {
	if int(pointID) < len(r.jointIDs) {
		return r.jointIDs[pointID]
	}
	return InvalidJointID
}

func (r *RoadJointIDs) AddJoint(pointID uint32, jointID JointID) {
	for int(pointID) >= len(r.jointIDs) {
		r.jointIDs = append(r.jointIDs, InvalidJointID)
	}
	r.jointIDs[pointID] = jointID
}

// FindNeighbor returns the nearest joint strictly after (forward) or strictly before pointID and
// the point it sits on. Returns InvalidJointID when the search runs off the feature.
func (r *RoadJointIDs) FindNeighbor(pointID uint32, forward bool) (JointID, uint32) {
	size := uint32(len(r.jointIDs))
	if forward {
		for i := pointID + 1; i < size; i++ {
			if r.jointIDs[i] != InvalidJointID {
				return r.jointIDs[i], i
			}
		}
		return InvalidJointID, 0
	}

	if pointID > size {
		pointID = size
	}
	for i := pointID; i > 0; i-- {
		if r.jointIDs[i-1] != InvalidJointID {
			return r.jointIDs[i-1], i - 1
		}
	}
	return InvalidJointID, 0
}

func (r *RoadJointIDs) ForEachJoint(fn func(pointID uint32, jointID JointID)) {
	for i, id := range r.jointIDs {
		if id != InvalidJointID {
			fn(uint32(i), id)
		}
	}
}

func (r *RoadJointIDs) GetJointsNumber() int {
	count := 0
	for _, id := range r.jointIDs {
		if id != InvalidJointID {
			count++
		}
	}
	return count
}

func (r *RoadJointIDs) GetMaxPointID() uint32 {
	return uint32(len(r.jointIDs))
}

// RoadIndex is the inverse of the joint index: road point -> joint.
type RoadIndex struct {
	roads map[datastructure.FeatureID]*RoadJointIDs
}

func NewRoadIndex() *RoadIndex {
	return &RoadIndex{roads: make(map[datastructure.FeatureID]*RoadJointIDs)}
}

// Import joints. Joint id is the position of the joint in joints.
func (ri *RoadIndex) Import(joints []Joint) {
	for jointID, joint := range joints {
		for _, rp := range joint {
			road, ok := ri.roads[rp.Feature]
			if !ok {
				road = NewRoadJointIDs()
				ri.roads[rp.Feature] = road
			}
			road.AddJoint(rp.PointID, JointID(jointID))
		}
	}
}

func (ri *RoadIndex) GetRoad(feature datastructure.FeatureID) (*RoadJointIDs, bool) {
	road, ok := ri.roads[feature]
	return road, ok
}

func (ri *RoadIndex) GetJointID(rp datastructure.RoadPoint) JointID {
	road, ok := ri.roads[rp.Feature]
	if !ok {
		return InvalidJointID
	}
	return road.GetJointID(rp.PointID)
}

func (ri *RoadIndex) AddJoint(rp datastructure.RoadPoint, jointID JointID) {
	road, ok := ri.roads[rp.Feature]
	if !ok {
		road = NewRoadJointIDs()
		ri.roads[rp.Feature] = road
	}
	road.AddJoint(rp.PointID, jointID)
}

// ForEachRoad visits roads ordered by feature id.
func (ri *RoadIndex) ForEachRoad(fn func(feature datastructure.FeatureID, road *RoadJointIDs)) {
	features := maps.Keys(ri.roads)
	slices.Sort(features)
	for _, f := range features {
		fn(f, ri.roads[f])
	}
}

func (ri *RoadIndex) GetSize() int {
	return len(ri.roads)
}
