package router

import (
	"fmt"
	"strings"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
)

type ResultCode uint8

const (
	NoError ResultCode = iota
	RouteNotFound
	Cancelled
	NeedMoreMaps
	StartPointNotFound
	EndPointNotFound
)

func (c ResultCode) String() string {
	switch c {
	case NoError:
		return "no_error"
	case RouteNotFound:
		return "route_not_found"
	case Cancelled:
		return "cancelled"
	case NeedMoreMaps:
		return "need_more_maps"
	case StartPointNotFound:
		return "start_point_not_found"
	case EndPointNotFound:
		return "end_point_not_found"
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

type Mode uint8

const (
	ModeCar Mode = iota
	ModePedestrian
	ModeTransit
)

func (m Mode) String() string {
	switch m {
	case ModeCar:
		return "car"
	case ModePedestrian:
		return "pedestrian"
	case ModeTransit:
		return "transit"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "car":
		return ModeCar, nil
	case "pedestrian", "walk":
		return ModePedestrian, nil
	case "transit":
		return ModeTransit, nil
	}
	return ModeCar, fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// RouteSegment is one segment of the route. Real is the road (or guide) segment a fake slice
// runs along, HasReal is false for real segments themselves and for pure fakes.
type RouteSegment struct {
	Segment datastructure.Segment
	Real    datastructure.Segment
	HasReal bool
	From    datastructure.LatLonWithAltitude
	To      datastructure.LatLonWithAltitude
	Weight  datastructure.RouteWeight
	Transit bool
}

type RouteResult struct {
	QueryID  string
	Code     ResultCode
	Weight   datastructure.RouteWeight
	Legs     []datastructure.RouteWeight
	Segments []RouteSegment
	// Polyline of the simplified route geometry.
	Polyline string
}

// Points is the geometry of the route, consecutive duplicates dropped.
func (r *RouteResult) Points() []datastructure.LatLonWithAltitude {
	points := make([]datastructure.LatLonWithAltitude, 0, len(r.Segments)+1)
	add := func(p datastructure.LatLonWithAltitude) {
		if len(points) == 0 || points[len(points)-1] != p {
			points = append(points, p)
		}
	}
	for _, s := range r.Segments {
		add(s.From)
		add(s.To)
	}
	return points
}

// Distance meters along the route.
func (r *RouteResult) Distance() float64 {
	total := 0.0
	for _, s := range r.Segments {
		total += geo.DistanceMeters(s.From, s.To)
	}
	return total
}
