package restriction

import (
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

type Kind uint8

const (
	KindNo Kind = iota
	KindOnly
	KindNoUTurn
	KindOnlyUTurn
)

func (k Kind) String() string {
	switch k {
	case KindNo:
		return "no"
	case KindOnly:
		return "only"
	case KindNoUTurn:
		return "no_u_turn"
	case KindOnlyUTurn:
		return "only_u_turn"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Restriction is a sequence of features passed through consecutive joints.
// For KindNo the sequence is forbidden, for KindOnly it is mandatory once its first feature was taken.
type Restriction struct {
	Kind     Kind                      `json:"kind"`
	Features []datastructure.FeatureID `json:"features"`
}

func NewRestriction(kind Kind, features ...datastructure.FeatureID) Restriction {
	return Restriction{Kind: kind, Features: features}
}

// UTurnRestriction forbids (KindNoUTurn) or mandates (KindOnlyUTurn) a u-turn at the first or
// last point of Feature.
type UTurnRestriction struct {
	Kind            Kind                    `json:"kind"`
	Feature         datastructure.FeatureID `json:"feature"`
	ViaIsFirstPoint bool                    `json:"via_is_first_point"`
}

func NewUTurnRestriction(kind Kind, feature datastructure.FeatureID, viaIsFirstPoint bool) UTurnRestriction {
	return UTurnRestriction{Kind: kind, Feature: feature, ViaIsFirstPoint: viaIsFirstPoint}
}

// RestrictionVec is a list of No restrictions, each one a feature sequence.
type RestrictionVec [][]datastructure.FeatureID

// UTurnCheck tells at which end of a feature u-turns are forbidden.
type UTurnCheck struct {
	AtTheBeginning bool
	AtTheEnd       bool
}
