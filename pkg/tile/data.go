package tile

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/joint"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
)

// Road is one routable feature of a tile.
type Road struct {
	Feature datastructure.FeatureID            `json:"feature"`
	Points  []datastructure.LatLonWithAltitude `json:"points"`
	// NodeIDs are the osm node ids of Points, used to derive joints.
	NodeIDs []int64 `json:"node_ids"`
	Class   string  `json:"class"`
	OneWay  bool    `json:"one_way"`
	// MaxSpeed km/h, zero if unknown.
	MaxSpeed float64 `json:"max_speed"`
	// PassThroughAllowed is false for access=destination like zones.
	PassThroughAllowed bool `json:"pass_through_allowed"`
	Pedestrian         bool `json:"pedestrian"`
	Car                bool `json:"car"`
}

// BorderPoint is a road point shared with another tile, twins have equal keys.
type BorderPoint struct {
	Feature  datastructure.FeatureID `json:"feature"`
	PointIdx uint32                  `json:"point_idx"`
	Key      string                  `json:"key"`
}

type TransitStop struct {
	ID    uint32                           `json:"id"`
	Point datastructure.LatLonWithAltitude `json:"point"`
}

type TransitLine struct {
	ID    uint32 `json:"id"`
	Title string `json:"title"`
	// Interval seconds between two vehicles.
	Interval float64 `json:"interval"`
}

type TransitEdge struct {
	ID     uint32 `json:"id"`
	LineID uint32 `json:"line_id"`
	Stop1  uint32 `json:"stop1"`
	Stop2  uint32 `json:"stop2"`
	// Weight travel time seconds.
	Weight   float64 `json:"weight"`
	Transfer bool    `json:"transfer"`
}

type TransitGate struct {
	ID       uint32                           `json:"id"`
	Point    datastructure.LatLonWithAltitude `json:"point"`
	StopIDs  []uint32                         `json:"stop_ids"`
	Entrance bool                             `json:"entrance"`
	Exit     bool                             `json:"exit"`
	// Weight seconds from the gate to a stop.
	Weight float64 `json:"weight"`
}

type TransitData struct {
	Stops []TransitStop `json:"stops"`
	Lines []TransitLine `json:"lines"`
	Edges []TransitEdge `json:"edges"`
	Gates []TransitGate `json:"gates"`
}

func (t TransitData) IsEmpty() bool {
	return len(t.Edges) == 0
}

type GuideTrack struct {
	ID     uint32                             `json:"id"`
	Title  string                             `json:"title"`
	Points []datastructure.LatLonWithAltitude `json:"points"`
}

// Data is the deserialized content of one tile.
type Data struct {
	ID                datastructure.TileID           `json:"id"`
	Name              string                         `json:"name"`
	Roads             []Road                         `json:"roads"`
	Joints            []joint.Joint                  `json:"joints"`
	Restrictions      []restriction.Restriction      `json:"restrictions"`
	UTurnRestrictions []restriction.UTurnRestriction `json:"u_turn_restrictions"`
	Transit           TransitData                    `json:"transit"`
	Guides            []GuideTrack                   `json:"guides"`
	Borders           []BorderPoint                  `json:"borders"`
}

// NumPoints is used as the cache cost of a tile.
func (d *Data) NumPoints() int64 {
	n := 0
	for _, r := range d.Roads {
		n += len(r.Points)
	}
	return int64(n + 1)
}
