package datastructure

import (
	"fmt"
	"math"
)

const (
	// relative tolerance for reduced weights, weights of cross-tile edges are rounded.
	badReducedWeightEpsilon = 1e-5
)

// RouteWeight is the cost of a path. Weight is travel time in seconds, NumPassThroughChanges counts
// entering/leaving pass-through restricted zones and TransitTime is the part of Weight spent
// in public transport (including expected waiting).
type RouteWeight struct {
	Weight                float64 `json:"weight"`
	NumPassThroughChanges int32   `json:"num_pass_through_changes"`
	TransitTime           float64 `json:"transit_time"`
}

func NewRouteWeight(weight float64) RouteWeight {
	return RouteWeight{Weight: weight}
}

func NewTransitRouteWeight(weight float64) RouteWeight {
	return RouteWeight{Weight: weight, TransitTime: weight}
}

func InfiniteRouteWeight() RouteWeight {
	return RouteWeight{
		Weight:                math.MaxFloat64,
		NumPassThroughChanges: math.MaxInt32,
		TransitTime:           0,
	}
}

func (w RouteWeight) Add(rhs RouteWeight) RouteWeight {
	return RouteWeight{
		Weight:                w.Weight + rhs.Weight,
		NumPassThroughChanges: w.NumPassThroughChanges + rhs.NumPassThroughChanges,
		TransitTime:           w.TransitTime + rhs.TransitTime,
	}
}

func (w RouteWeight) Sub(rhs RouteWeight) RouteWeight {
	return RouteWeight{
		Weight:                w.Weight - rhs.Weight,
		NumPassThroughChanges: w.NumPassThroughChanges - rhs.NumPassThroughChanges,
		TransitTime:           w.TransitTime - rhs.TransitTime,
	}
}

// Scale is used for the averaged potentials of bidirectional A*.
func (w RouteWeight) Scale(factor float64) RouteWeight {
	return RouteWeight{
		Weight:                w.Weight * factor,
		NumPassThroughChanges: w.NumPassThroughChanges,
		TransitTime:           w.TransitTime * factor,
	}
}

// Less: fewer pass-through changes first, then smaller weight. On equal weight the route
// with more transit time wins since it has less walking.
func (w RouteWeight) Less(rhs RouteWeight) bool {
	if w.NumPassThroughChanges != rhs.NumPassThroughChanges {
		return w.NumPassThroughChanges < rhs.NumPassThroughChanges
	}
	if w.Weight != rhs.Weight {
		return w.Weight < rhs.Weight
	}
	return w.TransitTime > rhs.TransitTime
}

func (w RouteWeight) IsZero() bool {
	return w.Weight == 0 && w.NumPassThroughChanges == 0 && w.TransitTime == 0
}

// IsBadReducedWeight reports whether w, a reduced weight of an edge, is negative beyond the tolerance
// relative to reference.
func (w RouteWeight) IsBadReducedWeight(reference RouteWeight) bool {
	if w.NumPassThroughChanges < 0 {
		return true
	}
	eps := badReducedWeightEpsilon * math.Max(1.0, math.Abs(reference.Weight))
	return w.Weight < -eps
}

// ClampNonNegative zeroes the negative parts of a reduced weight.
func (w RouteWeight) ClampNonNegative() RouteWeight {
	if w.Weight < 0 {
		w.Weight = 0
	}
	if w.TransitTime < 0 {
		w.TransitTime = 0
	}
	if w.NumPassThroughChanges < 0 {
		w.NumPassThroughChanges = 0
	}
	return w
}

func (w RouteWeight) String() string {
	return fmt.Sprintf("(%d, %.3f, %.3f)", w.NumPassThroughChanges, w.Weight, w.TransitTime)
}
