package tile

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

var (
	ErrInvalidTile = errors.New("invalid tile data")
)

// Tile is a loaded tile: its data plus the indexes built from it. A Tile is read only after
// NewTile and can be shared by concurrent queries.
type Tile struct {
	data *Data

	roads        map[datastructure.FeatureID]*Road
	roadIndex    *joint.RoadIndex
	jointIndex   *joint.JointIndex
	restrictions *restriction.Index
	spatial      *SpatialIndex

	borders      map[datastructure.RoadPoint]string
	bordersByKey map[string][]datastructure.RoadPoint
}

// NewTile builds the joint, restriction and spatial indexes of data. Roads with less than two
// points are skipped. When data has no joints they are derived from the road node ids.
func NewTile(data *Data) (*Tile, error) {
	t := &Tile{
		data:         data,
		roads:        make(map[datastructure.FeatureID]*Road, len(data.Roads)),
		roadIndex:    joint.NewRoadIndex(),
		jointIndex:   joint.NewJointIndex(),
		spatial:      NewSpatialIndex(),
		borders:      make(map[datastructure.RoadPoint]string),
		bordersByKey: make(map[string][]datastructure.RoadPoint),
	}

	for i := range data.Roads {
		road := &data.Roads[i]
		if len(road.Points) < 2 {
			slog.Warn("road with less than two points skipped", "tile", data.ID, "feature", road.Feature)
			continue
		}
		if _, ok := t.roads[road.Feature]; ok {
			return nil, fmt.Errorf("tile %d: duplicate feature %d: %w", data.ID, road.Feature, ErrInvalidTile)
		}
		t.roads[road.Feature] = road

		for idx := 0; idx+1 < len(road.Points); idx++ {
			seg := datastructure.NewSegment(data.ID, road.Feature, uint32(idx), true)
			t.spatial.Insert(seg, road.Points[idx], road.Points[idx+1])
		}
	}

	joints := data.Joints
	if len(joints) == 0 {
		nodes := make(map[datastructure.FeatureID][]int64, len(t.roads))
		for f, road := range t.roads {
			if len(road.NodeIDs) == len(road.Points) {
				nodes[f] = road.NodeIDs
			}
		}
		joints = joint.BuildJoints(nodes)
	}
	for id, j := range joints {
		for _, rp := range j {
			road, ok := t.roads[rp.Feature]
			if !ok {
				return nil, fmt.Errorf("tile %d: joint %d references unknown feature %d: %w", data.ID, id, rp.Feature, ErrInvalidTile)
			}
			if int(rp.PointID) >= len(road.Points) {
				return nil, fmt.Errorf("tile %d: joint %d references point %d of feature %d with %d points: %w",
					data.ID, id, rp.PointID, rp.Feature, len(road.Points), ErrInvalidTile)
			}
		}
	}
	t.roadIndex.Import(joints)
	t.jointIndex.Build(t.roadIndex, uint32(len(joints)))

	loader := restriction.NewLoader(data.ID, t.roadIndex, t.jointIndex)
	noRestrictions, noUTurns := loader.Load(data.Restrictions, data.UTurnRestrictions)
	t.restrictions = restriction.NewIndex(noRestrictions, noUTurns)

	for _, b := range data.Borders {
		if _, ok := t.roads[b.Feature]; !ok {
			slog.Warn("border point on unknown feature skipped", "tile", data.ID, "feature", b.Feature)
			continue
		}
		rp := datastructure.NewRoadPoint(b.Feature, b.PointIdx)
		t.borders[rp] = b.Key
		t.bordersByKey[b.Key] = append(t.bordersByKey[b.Key], rp)
	}

	slog.Debug("tile built", "tile", data.ID, "roads", len(t.roads), "joints", len(joints),
		"restrictions", t.restrictions.Size())
	return t, nil
}

func (t *Tile) ID() datastructure.TileID {
	return t.data.ID
}

func (t *Tile) Name() string {
	return t.data.Name
}

func (t *Tile) Data() *Data {
	return t.data
}

func (t *Tile) GetRoad(feature datastructure.FeatureID) (*Road, bool) {
	road, ok := t.roads[feature]
	return road, ok
}

// MustGetRoad panics if feature is not a road of this tile.
func (t *Tile) MustGetRoad(feature datastructure.FeatureID) *Road {
	road, ok := t.roads[feature]
	if !ok {
		panic(fmt.Sprintf("feature %d is not a road of tile %d", feature, t.data.ID))
	}
	return road
}

func (t *Tile) GetPoint(rp datastructure.RoadPoint) datastructure.LatLonWithAltitude {
	return t.MustGetRoad(rp.Feature).Points[rp.PointID]
}

// GetSegmentPoints returns the back and the front point of segment (in travel direction).
func (t *Tile) GetSegmentPoints(segment datastructure.Segment) (datastructure.LatLonWithAltitude, datastructure.LatLonWithAltitude) {
	road := t.MustGetRoad(segment.Feature)
	return road.Points[segment.GetPointID(false)], road.Points[segment.GetPointID(true)]
}

func (t *Tile) RoadIndex() *joint.RoadIndex {
	return t.roadIndex
}

// JointIndex returns the shared static joint index. Queries that add joints must Fork it.
func (t *Tile) JointIndex() *joint.JointIndex {
	return t.jointIndex
}

func (t *Tile) Restrictions() *restriction.Index {
	return t.restrictions
}

func (t *Tile) Spatial() *SpatialIndex {
	return t.spatial
}

// BorderKey returns the key shared by rp and its twins in neighbouring tiles.
func (t *Tile) BorderKey(rp datastructure.RoadPoint) (string, bool) {
	key, ok := t.borders[rp]
	return key, ok
}

// BorderPoints returns the road points of this tile with border key.
func (t *Tile) BorderPoints(key string) []datastructure.RoadPoint {
	return t.bordersByKey[key]
}

// BorderKeys returns the border keys of this tile, sorted.
func (t *Tile) BorderKeys() []string {
	keys := maps.Keys(t.bordersByKey)
	slices.Sort(keys)
	return keys
}

func (t *Tile) NumRoads() int {
	return len(t.roads)
}
