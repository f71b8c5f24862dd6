package joint

import (
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNeighbor(t *testing.T) {
	roadIndex := NewRoadIndex()
	roadIndex.Import(buildTestJoints())

	road, ok := roadIndex.GetRoad(0)
	require.True(t, ok)

	// f0: joints at p0, p1, p3. p2 is not a joint.
	assert.Equal(t, InvalidJointID, road.GetJointID(2))

	cases := []struct {
		pointID   uint32
		forward   bool
		wantJoint JointID
		wantPoint uint32
	}{
		{0, true, 1, 1},
		{1, true, 2, 3},
		{2, true, 2, 3},
		{2, false, 1, 1},
		{1, false, 0, 0},
		{3, true, InvalidJointID, 0},
		{0, false, InvalidJointID, 0},
	}
	for _, c := range cases {
		joint, point := road.FindNeighbor(c.pointID, c.forward)
		assert.Equal(t, c.wantJoint, joint, "point %d forward %t", c.pointID, c.forward)
		assert.Equal(t, c.wantPoint, point, "point %d forward %t", c.pointID, c.forward)
	}
}

func TestFindNeighborNoOverlap(t *testing.T) {
	roadIndex := NewRoadIndex()
	roadIndex.Import(buildTestJoints())

	roadIndex.ForEachRoad(func(_ datastructure.FeatureID, road *RoadJointIDs) {
		for p := uint32(0); p < road.GetMaxPointID(); p++ {
			fwdJoint, fwdPoint := road.FindNeighbor(p, true)
			bwdJoint, bwdPoint := road.FindNeighbor(p, false)
			if fwdJoint != InvalidJointID {
				assert.Greater(t, fwdPoint, p)
			}
			if bwdJoint != InvalidJointID {
				assert.Less(t, bwdPoint, p)
			}
			if fwdJoint != InvalidJointID && bwdJoint != InvalidJointID {
				assert.NotEqual(t, fwdPoint, bwdPoint)
			}
		}
	})
}

func TestRoadIndexLookup(t *testing.T) {
	roadIndex := NewRoadIndex()
	roadIndex.Import(buildTestJoints())

	assert.Equal(t, 3, roadIndex.GetSize())
	assert.Equal(t, JointID(3), roadIndex.GetJointID(datastructure.NewRoadPoint(2, 0)))
	assert.Equal(t, InvalidJointID, roadIndex.GetJointID(datastructure.NewRoadPoint(42, 0)))

	roadIndex.AddJoint(datastructure.NewRoadPoint(0, 2), 9)
	assert.Equal(t, JointID(9), roadIndex.GetJointID(datastructure.NewRoadPoint(0, 2)))
}
