package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

const (
	endpointSnapMeters = 0.01
)

func toS2Point(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * earthRadiusM
}

// ProjectPointToLineCoord projects snap onto the great-circle segment (a, b).
func ProjectPointToLineCoord(a, b, snap datastructure.Coordinate) datastructure.Coordinate {
	projection := s2.Project(toS2Point(snap), toS2Point(a), toS2Point(b))
	projectLatLng := s2.LatLngFromPoint(projection)
	return datastructure.NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// ProjectPointToSegment returns the point of segment (a, b) closest to p, the distance from p to it in
// meters and its position along the segment in [0, 1]. Altitude is interpolated.
func ProjectPointToSegment(p, a, b datastructure.LatLonWithAltitude) (datastructure.LatLonWithAltitude, float64, float64) {
	pS2, aS2, bS2 := toS2Point(p.Coordinate), toS2Point(a.Coordinate), toS2Point(b.Coordinate)

	var projection s2.Point
	if aS2.ApproxEqual(bS2) {
		projection = aS2
	} else {
		projection = s2.Project(pS2, aS2, bS2)
	}

	ll := s2.LatLngFromPoint(projection)
	fraction := 0.0
	segLen := aS2.Distance(bS2).Radians()
	if segLen > 0 {
		fraction = math.Min(1.0, math.Max(0.0, aS2.Distance(projection).Radians()/segLen))
	}

	junction := datastructure.NewLatLonWithAltitude(ll.Lat.Degrees(), ll.Lng.Degrees(),
		a.Altitude+(b.Altitude-a.Altitude)*fraction)
	// snap to the segment ends, fake segments are matched to real ones by exact points.
	if fraction == 0 || angleToMeters(aS2.Distance(projection)) < endpointSnapMeters {
		junction, fraction = a, 0
	} else if fraction == 1 || angleToMeters(bS2.Distance(projection)) < endpointSnapMeters {
		junction, fraction = b, 1
	}
	return junction, angleToMeters(pS2.Distance(projection)), fraction
}

// PointLinePerpendicularDistance meters from p to segment (a, b).
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	return angleToMeters(s2.DistanceFromSegment(toS2Point(p), toS2Point(a), toS2Point(b)))
}

const (
	tolerancePointInLine = 1e-3
)

// PointPositionBetweenLinePoints returns index i such that the point lies between linePoints[i-1] and
// linePoints[i], or 0 if it lies on none of them.
func PointPositionBetweenLinePoints(lat, lon float64, linePoints []datastructure.Coordinate) int {
	minDiff := math.MaxFloat64
	var pos int
	for i := 0; i < len(linePoints)-1; i++ {
		currQueryDist := s2.LatLngFromDegrees(lat, lon).Distance(s2.LatLngFromDegrees(linePoints[i].Lat, linePoints[i].Lon)).Radians()
		nextQueryDist := s2.LatLngFromDegrees(lat, lon).Distance(s2.LatLngFromDegrees(linePoints[i+1].Lat, linePoints[i+1].Lon)).Radians()

		currNextDist := s2.LatLngFromDegrees(linePoints[i].Lat, linePoints[i].Lon).Distance(s2.LatLngFromDegrees(linePoints[i+1].Lat, linePoints[i+1].Lon)).Radians()

		diff := math.Abs(currQueryDist + nextQueryDist - currNextDist)
		if diff < tolerancePointInLine && diff < minDiff {
			minDiff = diff
			pos = i + 1
		}
	}
	return pos
}
