package indexgraph

import (
	"math"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
)

const (
	kmhToMs = 1.0 / 3.6

	DefaultPedestrianSpeedKMH = 5.0
	DefaultOffroadSpeedKMH    = 10.0
	DefaultUTurnPenalty       = 30.0
)

// EdgeEstimator is the cost model of one travel mode. All weights are seconds.
// CalcHeuristic must never exceed the weight of any path between the two points.
type EdgeEstimator interface {
	CalcSegmentWeight(from, to datastructure.LatLonWithAltitude, road *tile.Road) float64
	CalcOffroad(from, to datastructure.LatLonWithAltitude) float64
	CalcHeuristic(from, to datastructure.LatLonWithAltitude) float64
	GetUTurnPenalty() float64
	// TurnsAroundAnywhere is false when u-turns are only possible at joints and road ends.
	TurnsAroundAnywhere() bool
	// MaxSpeed km/h.
	MaxSpeed() float64
	IsAccessible(road *tile.Road) bool
	IsOneWay(road *tile.Road) bool
}

type CarEstimator struct {
	uTurnPenalty    float64
	offroadSpeedKMH float64
}

func NewCarEstimator(uTurnPenalty, offroadSpeedKMH float64) *CarEstimator {
	if offroadSpeedKMH <= 0 {
		offroadSpeedKMH = DefaultOffroadSpeedKMH
	}
	return &CarEstimator{
		uTurnPenalty:    uTurnPenalty,
		offroadSpeedKMH: math.Min(offroadSpeedKMH, datastructure.MaxRoadSpeedKMH),
	}
}

// roadSpeed km/h, the maxspeed tag wins over the highway class.
func (e *CarEstimator) roadSpeed(road *tile.Road) float64 {
	speed := road.MaxSpeed
	if speed <= 0 {
		speed = datastructure.RoadTypeMaxSpeed(road.Class)
	}
	return math.Min(speed, datastructure.MaxRoadSpeedKMH)
}

func (e *CarEstimator) CalcSegmentWeight(from, to datastructure.LatLonWithAltitude, road *tile.Road) float64 {
	return geo.DistanceMeters(from, to) / (e.roadSpeed(road) * kmhToMs)
}

func (e *CarEstimator) CalcOffroad(from, to datastructure.LatLonWithAltitude) float64 {
	return geo.DistanceMeters(from, to) / (e.offroadSpeedKMH * kmhToMs)
}

func (e *CarEstimator) CalcHeuristic(from, to datastructure.LatLonWithAltitude) float64 {
	return geo.DistanceMeters(from, to) / (datastructure.MaxRoadSpeedKMH * kmhToMs)
}

func (e *CarEstimator) GetUTurnPenalty() float64 {
	return e.uTurnPenalty
}

func (e *CarEstimator) TurnsAroundAnywhere() bool {
	return false
}

func (e *CarEstimator) MaxSpeed() float64 {
	return datastructure.MaxRoadSpeedKMH
}

func (e *CarEstimator) IsAccessible(road *tile.Road) bool {
	return road.Car
}

func (e *CarEstimator) IsOneWay(road *tile.Road) bool {
	return road.OneWay
}

// PedestrianEstimator walks every road in both directions at a constant speed.
// maxSpeedKMH bounds the heuristic, in transit mode it is the fastest vehicle.
type PedestrianEstimator struct {
	speedKMH    float64
	maxSpeedKMH float64
}

func NewPedestrianEstimator(speedKMH, maxSpeedKMH float64) *PedestrianEstimator {
	if speedKMH <= 0 {
		speedKMH = DefaultPedestrianSpeedKMH
	}
	if maxSpeedKMH < speedKMH {
		maxSpeedKMH = speedKMH
	}
	return &PedestrianEstimator{speedKMH: speedKMH, maxSpeedKMH: maxSpeedKMH}
}

func (e *PedestrianEstimator) CalcSegmentWeight(from, to datastructure.LatLonWithAltitude, _ *tile.Road) float64 {
	return geo.DistanceMeters(from, to) / (e.speedKMH * kmhToMs)
}

func (e *PedestrianEstimator) CalcOffroad(from, to datastructure.LatLonWithAltitude) float64 {
	return geo.DistanceMeters(from, to) / (e.speedKMH * kmhToMs)
}

func (e *PedestrianEstimator) CalcHeuristic(from, to datastructure.LatLonWithAltitude) float64 {
	return geo.DistanceMeters(from, to) / (e.maxSpeedKMH * kmhToMs)
}

// GetUTurnPenalty turning around on foot is free.
func (e *PedestrianEstimator) GetUTurnPenalty() float64 {
	return 0
}

func (e *PedestrianEstimator) TurnsAroundAnywhere() bool {
	return true
}

func (e *PedestrianEstimator) MaxSpeed() float64 {
	return e.maxSpeedKMH
}

func (e *PedestrianEstimator) IsAccessible(road *tile.Road) bool {
	return road.Pedestrian
}

func (e *PedestrianEstimator) IsOneWay(_ *tile.Road) bool {
	return false
}
