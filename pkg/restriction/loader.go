package restriction

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"golang.org/x/exp/slog"
)

// Loader converts the raw restrictions of one tile to No restrictions.
type Loader struct {
	roadIndex  *joint.RoadIndex
	jointIndex *joint.JointIndex
	tile       datastructure.TileID
}

func NewLoader(tile datastructure.TileID, roadIndex *joint.RoadIndex, jointIndex *joint.JointIndex) *Loader {
	return &Loader{
		roadIndex:  roadIndex,
		jointIndex: jointIndex,
		tile:       tile,
	}
}

// Load returns the No restrictions (Only restrictions converted) and the no-u-turn checks per
// feature (OnlyUTurn restrictions converted to No restrictions).
func (l *Loader) Load(raw []Restriction, uTurns []UTurnRestriction) (RestrictionVec, map[datastructure.FeatureID]UTurnCheck) {
	noRestrictions := make(RestrictionVec, 0, len(raw))
	onlyRestrictions := make(RestrictionVec, 0)

	for _, r := range raw {
		if len(r.Features) < 2 {
			slog.Warn("restriction with less than two features skipped", "tile", l.tile, "kind", r.Kind.String(), "features", r.Features)
			continue
		}
		switch r.Kind {
		case KindNo:
			noRestrictions = append(noRestrictions, append([]datastructure.FeatureID{}, r.Features...))
		case KindOnly:
			onlyRestrictions = append(onlyRestrictions, r.Features)
		default:
			slog.Warn("u-turn kind in feature restriction list skipped", "tile", l.tile, "kind", r.Kind.String())
		}
	}

	noRestrictions = append(noRestrictions, l.ConvertRestrictionsOnlyToNo(onlyRestrictions)...)

	noUTurns := make(map[datastructure.FeatureID]UTurnCheck)
	for _, u := range uTurns {
		switch u.Kind {
		case KindNoUTurn:
			check := noUTurns[u.Feature]
			if u.ViaIsFirstPoint {
				check.AtTheBeginning = true
			} else {
				check.AtTheEnd = true
			}
			noUTurns[u.Feature] = check
		case KindOnlyUTurn:
			noRestrictions = append(noRestrictions, l.ConvertOnlyUTurnToNo(u)...)
		default:
			slog.Warn("feature restriction kind in u-turn list skipped", "tile", l.tile, "kind", u.Kind.String())
		}
	}

	return noRestrictions, noUTurns
}

// ConvertRestrictionsOnlyToNo: for Only f1..fN, at the common joint of every pair (f_{i-1}, f_i)
// every road other than f_i and f_{i-1} is forbidden after f1..f_{i-1}. Staying on f_{i-1}
// is never a restricted turn, so it gets no entry.
// If a pair has no common joint, conversion of that restriction stops. Restrictions produced
// for earlier pairs are kept.
func (l *Loader) ConvertRestrictionsOnlyToNo(onlyRestrictions RestrictionVec) RestrictionVec {
	result := make(RestrictionVec, 0)
	for _, only := range onlyRestrictions {
		for i := 1; i < len(only); i++ {
			prev, cur := only[i-1], only[i]
			common, ok := l.FindCommonJoint(prev, cur)
			if !ok {
				slog.Warn("only restriction without common joint, rest of it dropped",
					"tile", l.tile, "from", prev, "to", cur, "features", only)
				break
			}

			prefix := only[:i]
			seen := make(map[datastructure.FeatureID]struct{})
			l.jointIndex.ForEachPoint(common, func(rp datastructure.RoadPoint) {
				if rp.Feature == cur || rp.Feature == prev {
					return
				}
				if _, ok := seen[rp.Feature]; ok {
					return
				}
				seen[rp.Feature] = struct{}{}

				no := make([]datastructure.FeatureID, 0, i+1)
				no = append(no, prefix...)
				no = append(no, rp.Feature)
				result = append(result, no)
			})
		}
	}
	return result
}

// ConvertOnlyUTurnToNo forbids every road at the via joint except turning back onto u.Feature.
func (l *Loader) ConvertOnlyUTurnToNo(u UTurnRestriction) RestrictionVec {
	road, ok := l.roadIndex.GetRoad(u.Feature)
	if !ok {
		slog.Warn("only u-turn restriction on unknown feature", "tile", l.tile, "feature", u.Feature)
		return nil
	}

	var via joint.JointID
	if u.ViaIsFirstPoint {
		via = road.GetJointID(0)
	} else {
		via, _ = road.FindNeighbor(road.GetMaxPointID(), false)
	}
	if via == joint.InvalidJointID {
		slog.Warn("only u-turn restriction without via joint", "tile", l.tile, "feature", u.Feature)
		return nil
	}

	result := make(RestrictionVec, 0)
	seen := make(map[datastructure.FeatureID]struct{})
	l.jointIndex.ForEachPoint(via, func(rp datastructure.RoadPoint) {
		if rp.Feature == u.Feature {
			return
		}
		if _, ok := seen[rp.Feature]; ok {
			return
		}
		seen[rp.Feature] = struct{}{}
		result = append(result, []datastructure.FeatureID{u.Feature, rp.Feature})
	})
	return result
}

// FindCommonJoint returns the first joint of road1 that is also a joint of road2.
func (l *Loader) FindCommonJoint(road1, road2 datastructure.FeatureID) (joint.JointID, bool) {
	r1, ok := l.roadIndex.GetRoad(road1)
	if !ok {
		return joint.InvalidJointID, false
	}
	r2, ok := l.roadIndex.GetRoad(road2)
	if !ok {
		return joint.InvalidJointID, false
	}

	joints2 := make(map[joint.JointID]struct{}, r2.GetJointsNumber())
	r2.ForEachJoint(func(_ uint32, id joint.JointID) {
		joints2[id] = struct{}{}
	})

	found := joint.InvalidJointID
	r1.ForEachJoint(func(_ uint32, id joint.JointID) {
		if found != joint.InvalidJointID {
			return
		}
		if _, ok := joints2[id]; ok {
			found = id
		}
	})
	return found, found != joint.InvalidJointID
}
