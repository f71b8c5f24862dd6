package restriction

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"golang.org/x/exp/slices"
)

// Index answers restriction queries during edge expansion.
//
// forward: last feature -> features before it, nearest first.
// backward: first feature -> features after it, nearest first.
type Index struct {
	forward  map[datastructure.FeatureID][][]datastructure.FeatureID
	backward map[datastructure.FeatureID][][]datastructure.FeatureID
	noUTurns map[datastructure.FeatureID]UTurnCheck
	size     int
	// features in the longest restriction.
	maxLength int
}

func NewIndex(restrictions RestrictionVec, noUTurns map[datastructure.FeatureID]UTurnCheck) *Index {
	idx := &Index{
		forward:  make(map[datastructure.FeatureID][][]datastructure.FeatureID),
		backward: make(map[datastructure.FeatureID][][]datastructure.FeatureID),
		noUTurns: noUTurns,
	}
	if idx.noUTurns == nil {
		idx.noUTurns = make(map[datastructure.FeatureID]UTurnCheck)
	}

	for _, r := range restrictions {
		if len(r) < 2 {
			continue
		}
		last := r[len(r)-1]
		prefix := append([]datastructure.FeatureID{}, r[:len(r)-1]...)
		slices.Reverse(prefix)
		idx.forward[last] = append(idx.forward[last], prefix)

		first := r[0]
		suffix := append([]datastructure.FeatureID{}, r[1:]...)
		idx.backward[first] = append(idx.backward[first], suffix)
		idx.size++
		if len(r) > idx.maxLength {
			idx.maxLength = len(r)
		}
	}
	return idx
}

func (idx *Index) Size() int {
	return idx.size
}

func (idx *Index) MaxLength() int {
	return idx.maxLength
}

// IsRestricted reports whether moving onto current is forbidden. For forward search
// previous yields the features already travelled, nearest first (previous(0) is the feature
// of the parent segment). For backward search current is the feature being prepended
// and previous yields the features that follow it.
// previous returns false when the chain of parents ends.
func (idx *Index) IsRestricted(current datastructure.FeatureID, isOutgoing bool,
	previous func(i int) (datastructure.FeatureID, bool)) bool {
	parent, ok := previous(0)
	if !ok || parent == current {
		return false
	}

	restrictions := idx.forward
	if !isOutgoing {
		restrictions = idx.backward
	}
	candidates, ok := restrictions[current]
	if !ok {
		return false
	}

	for _, r := range candidates {
		matched := true
		for i, f := range r {
			got, ok := previous(i)
			if !ok || got != f {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// IsUTurnRestricted reports whether a u-turn on feature at pointID is forbidden.
func (idx *Index) IsUTurnRestricted(feature datastructure.FeatureID, pointID, lastPointID uint32) bool {
	check, ok := idx.noUTurns[feature]
	if !ok {
		return false
	}
	if check.AtTheBeginning && pointID == 0 {
		return true
	}
	return check.AtTheEnd && pointID == lastPointID
}
