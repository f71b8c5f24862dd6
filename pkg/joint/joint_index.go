package joint

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"golang.org/x/exp/slices"
)

// JointIndex maps joint -> road points. Points of all joints are kept in one flat slice,
// the points of joint j are points[offsets[j]:offsets[j+1]].
type JointIndex struct {
	points  []datastructure.RoadPoint
	offsets []uint32

	// joints added during one query, merged with the static points by ForEachPoint.
	dynamic map[JointID][]datastructure.RoadPoint
}

func NewJointIndex() *JointIndex {
	return &JointIndex{
		points:  make([]datastructure.RoadPoint, 0),
		offsets: make([]uint32, 1),
		dynamic: make(map[JointID][]datastructure.RoadPoint),
	}
}

// Build fills the index from roadIndex. Example for numJoints = 6:
//
//	counts:        2, 5, 3, 4, 2, 3, 0
//	end bounds:    2, 7, 10, 14, 16, 19, 19
//	begin bounds:  0, 2, 7, 10, 14, 16, 19
func (ji *JointIndex) Build(roadIndex *RoadIndex, numJoints uint32) {
	// +1 so that offsets[j+1] is valid for the last joint.
	offsets := make([]uint32, numJoints+1)

	roadIndex.ForEachRoad(func(_ datastructure.FeatureID, road *RoadJointIDs) {
		road.ForEachJoint(func(_ uint32, jointID JointID) {
			if uint32(jointID) >= numJoints {
				panic(fmt.Sprintf("joint id %d out of range, numJoints %d", jointID, numJoints))
			}
			offsets[jointID]++
		})
	})

	for i := 1; i < len(offsets); i++ {
		offsets[i] += offsets[i-1]
	}

	points := make([]datastructure.RoadPoint, offsets[numJoints])

	// offsets are used as cursors, after this loop they are begin bounds.
	roadIndex.ForEachRoad(func(feature datastructure.FeatureID, road *RoadJointIDs) {
		road.ForEachJoint(func(pointID uint32, jointID JointID) {
			offsets[jointID]--
			points[offsets[jointID]] = datastructure.NewRoadPoint(feature, pointID)
		})
	})

	if offsets[0] != 0 {
		panic(fmt.Sprintf("joint index: first offset is %d", offsets[0]))
	}
	if offsets[numJoints] != uint32(len(points)) {
		panic(fmt.Sprintf("joint index: last offset %d != points %d", offsets[numJoints], len(points)))
	}

	ji.points = points
	ji.offsets = offsets
}

func (ji *JointIndex) NumJoints() uint32 {
	return uint32(len(ji.offsets) - 1)
}

func (ji *JointIndex) NumPoints() int {
	return len(ji.points)
}

// GetPoints returns the static points of jointID. The slice must not be modified.
func (ji *JointIndex) GetPoints(jointID JointID) []datastructure.RoadPoint {
	if uint32(jointID) >= ji.NumJoints() {
		return nil
	}
	return ji.points[ji.offsets[jointID]:ji.offsets[jointID+1]]
}

// GetOffsets is exposed for index consistency checks.
func (ji *JointIndex) GetOffsets() []uint32 {
	return ji.offsets
}

func (ji *JointIndex) ForEachPoint(jointID JointID, fn func(rp datastructure.RoadPoint)) {
	for _, rp := range ji.GetPoints(jointID) {
		fn(rp)
	}
	for _, rp := range ji.dynamic[jointID] {
		fn(rp)
	}
}

// AppendToJoint adds rp to joint jointID for the lifetime of this (forked) index.
func (ji *JointIndex) AppendToJoint(jointID JointID, rp datastructure.RoadPoint) {
	ji.dynamic[jointID] = append(ji.dynamic[jointID], rp)
}

// InsertJoint creates a new dynamic joint and returns its id.
func (ji *JointIndex) InsertJoint(points ...datastructure.RoadPoint) JointID {
	id := JointID(ji.NumJoints()) + JointID(len(ji.dynamic))
	for {
		if _, ok := ji.dynamic[id]; !ok {
			break
		}
		id++
	}
	ji.dynamic[id] = append([]datastructure.RoadPoint{}, points...)
	return id
}

// Fork shares the static points with ji and starts with an empty set of dynamic joints.
func (ji *JointIndex) Fork() *JointIndex {
	return &JointIndex{
		points:  ji.points,
		offsets: ji.offsets,
		dynamic: make(map[JointID][]datastructure.RoadPoint),
	}
}

// BuildJoints groups road points by node key. A point becomes a joint when its node is shared
// by more than one road point or when it is a road terminus.
func BuildJoints(roads map[datastructure.FeatureID][]int64) []Joint {
	features := make([]datastructure.FeatureID, 0, len(roads))
	for f := range roads {
		features = append(features, f)
	}
	slices.Sort(features)

	byNode := make(map[int64][]datastructure.RoadPoint)
	nodeOrder := make([]int64, 0)
	for _, f := range features {
		for i, node := range roads[f] {
			if _, ok := byNode[node]; !ok {
				nodeOrder = append(nodeOrder, node)
			}
			byNode[node] = append(byNode[node], datastructure.NewRoadPoint(f, uint32(i)))
		}
	}

	joints := make([]Joint, 0)
	for _, node := range nodeOrder {
		pts := byNode[node]
		isJoint := len(pts) > 1
		for _, rp := range pts {
			if rp.PointID == 0 || int(rp.PointID) == len(roads[rp.Feature])-1 {
				isJoint = true
			}
		}
		if isJoint {
			joints = append(joints, Joint(pts))
		}
	}
	return joints
}
