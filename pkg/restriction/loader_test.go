package restriction

import (
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"github.com/stretchr/testify/assert"
)

const (
	roadA datastructure.FeatureID = iota
	roadB
	roadC
	roadD
	roadE
)

func newLoader(joints []joint.Joint) *Loader {
	roadIndex := joint.NewRoadIndex()
	roadIndex.Import(joints)
	jointIndex := joint.NewJointIndex()
	jointIndex.Build(roadIndex, uint32(len(joints)))
	return NewLoader(0, roadIndex, jointIndex)
}

/*
four-way junction, every road has two points and point 1 of A and point 0 of the others meet at j1:

	        B
	        |
	A ---- j1 ---- C
	        |
	        D
*/
func fourWayJunction() []joint.Joint {
	rp := datastructure.NewRoadPoint
	return []joint.Joint{
		{rp(roadA, 0)},
		{rp(roadA, 1), rp(roadB, 0), rp(roadC, 0), rp(roadD, 0)},
		{rp(roadB, 1)},
		{rp(roadC, 1)},
		{rp(roadD, 1)},
	}
}

func TestConvertOnlyToNoFourWay(t *testing.T) {
	loader := newLoader(fourWayJunction())

	t.Run("only A to C", func(t *testing.T) {
		got := loader.ConvertRestrictionsOnlyToNo(RestrictionVec{{roadA, roadC}})
		assert.ElementsMatch(t, RestrictionVec{{roadA, roadB}, {roadA, roadD}}, got)
		for _, r := range got {
			assert.NotContains(t, r, roadC)
		}
	})

	t.Run("only A to B", func(t *testing.T) {
		got := loader.ConvertRestrictionsOnlyToNo(RestrictionVec{{roadA, roadB}})
		assert.ElementsMatch(t, RestrictionVec{{roadA, roadC}, {roadA, roadD}}, got)
	})
}

/*
	A ---- j1 ---- B ---- j2 ---- C
	                      |
	                      D
*/
func TestConvertOnlyToNoMultiHop(t *testing.T) {
	rp := datastructure.NewRoadPoint
	loader := newLoader([]joint.Joint{
		{rp(roadA, 0)},
		{rp(roadA, 1), rp(roadB, 0)},
		{rp(roadB, 1), rp(roadC, 0), rp(roadD, 0)},
		{rp(roadC, 1)},
		{rp(roadD, 1)},
	})

	got := loader.ConvertRestrictionsOnlyToNo(RestrictionVec{{roadA, roadB, roadC}})
	assert.Equal(t, RestrictionVec{{roadA, roadB, roadD}}, got)
}

func TestConvertOnlyToNoMissingCommonJoint(t *testing.T) {
	rp := datastructure.NewRoadPoint
	//  A -- j1 -- B,  E is disconnected from B
	loader := newLoader([]joint.Joint{
		{rp(roadA, 0)},
		{rp(roadA, 1), rp(roadB, 0), rp(roadD, 0)},
		{rp(roadB, 1)},
		{rp(roadD, 1)},
		{rp(roadE, 0)},
		{rp(roadE, 1)},
	})

	// the first hop converts, the broken second hop is dropped.
	got := loader.ConvertRestrictionsOnlyToNo(RestrictionVec{{roadA, roadB, roadE}})
	assert.Equal(t, RestrictionVec{{roadA, roadD}}, got)

	got = loader.ConvertRestrictionsOnlyToNo(RestrictionVec{{roadE, roadA}})
	assert.Empty(t, got)
}

func TestLoad(t *testing.T) {
	loader := newLoader(fourWayJunction())

	raw := []Restriction{
		NewRestriction(KindNo, roadB, roadC),
		NewRestriction(KindOnly, roadA, roadC),
		NewRestriction(KindNo, roadD),
	}
	uTurns := []UTurnRestriction{
		NewUTurnRestriction(KindNoUTurn, roadB, false),
		NewUTurnRestriction(KindOnlyUTurn, roadD, true),
	}

	noRestrictions, noUTurns := loader.Load(raw, uTurns)
	assert.ElementsMatch(t, RestrictionVec{
		{roadB, roadC},
		{roadA, roadB},
		{roadA, roadD},
		{roadD, roadA},
		{roadD, roadB},
		{roadD, roadC},
	}, noRestrictions)
	assert.Equal(t, map[datastructure.FeatureID]UTurnCheck{roadB: {AtTheEnd: true}}, noUTurns)
}

func TestFindCommonJoint(t *testing.T) {
	loader := newLoader(fourWayJunction())

	id, ok := loader.FindCommonJoint(roadA, roadD)
	assert.True(t, ok)
	assert.Equal(t, joint.JointID(1), id)

	_, ok = loader.FindCommonJoint(roadA, roadE)
	assert.False(t, ok)
}
