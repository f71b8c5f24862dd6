package datastructure

import (
	"fmt"
	"math"
)

type TileID uint32
type FeatureID uint32

const (
	// FakeTileID marks segments that only exist inside one query.
	FakeTileID TileID = math.MaxUint32
)

// Segment is one directed edge of a road polyline: the edge between points SegmentIdx and SegmentIdx+1
// of feature Feature in tile Tile.
type Segment struct {
	Tile       TileID    `json:"tile"`
	Feature    FeatureID `json:"feature"`
	SegmentIdx uint32    `json:"segment_idx"`
	Forward    bool      `json:"forward"`
}

func NewSegment(tile TileID, feature FeatureID, segmentIdx uint32, forward bool) Segment {
	return Segment{
		Tile:       tile,
		Feature:    feature,
		SegmentIdx: segmentIdx,
		Forward:    forward,
	}
}

// Less orders segments by (feature, segment index, tile, direction).
func (s Segment) Less(other Segment) bool {
	if s.Feature != other.Feature {
		return s.Feature < other.Feature
	}
	if s.SegmentIdx != other.SegmentIdx {
		return s.SegmentIdx < other.SegmentIdx
	}
	if s.Tile != other.Tile {
		return s.Tile < other.Tile
	}
	return !s.Forward && other.Forward
}

func (s Segment) Reversed() Segment {
	s.Forward = !s.Forward
	return s
}

// GetPointID returns the road point at the front (end of travel) or at the back of the segment.
func (s Segment) GetPointID(front bool) uint32 {
	if s.Forward == front {
		return s.SegmentIdx + 1
	}
	return s.SegmentIdx
}

func (s Segment) GetRoadPoint(front bool) RoadPoint {
	return NewRoadPoint(s.Feature, s.GetPointID(front))
}

func (s Segment) IsFake() bool {
	return s.Tile == FakeTileID
}

func (s Segment) FakeKind() FakeKind {
	if !s.IsFake() {
		return FakeKindNone
	}
	return FakeKind(s.Feature)
}

func (s Segment) IsGuidesFake() bool {
	return s.FakeKind() == FakeKindGuides
}

func (s Segment) IsTransitFake() bool {
	return s.FakeKind() == FakeKindTransit
}

// IsUTurn reports whether to is the same road segment as s travelled in the opposite direction.
func (s Segment) IsUTurn(to Segment) bool {
	return s.Tile == to.Tile && s.Feature == to.Feature && s.SegmentIdx == to.SegmentIdx && s.Forward != to.Forward
}

func (s Segment) String() string {
	if s.IsFake() {
		return fmt.Sprintf("fake(%s, %d, fwd=%t)", s.FakeKind(), s.SegmentIdx, s.Forward)
	}
	return fmt.Sprintf("seg(tile=%d, feature=%d, idx=%d, fwd=%t)", s.Tile, s.Feature, s.SegmentIdx, s.Forward)
}

// RoadPoint is point PointID of feature Feature.
type RoadPoint struct {
	Feature FeatureID `json:"feature"`
	PointID uint32    `json:"point_id"`
}

func NewRoadPoint(feature FeatureID, pointID uint32) RoadPoint {
	return RoadPoint{
		Feature: feature,
		PointID: pointID,
	}
}
