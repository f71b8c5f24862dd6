package geo

import (
	"math"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// CalculateHaversineDistance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// DistanceMeters great-circle distance between two points, altitude is ignored.
func DistanceMeters(a, b datastructure.LatLonWithAltitude) float64 {
	return CalculateHaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon) * 1000
}

// PolylineLength in meters.
func PolylineLength(points []datastructure.LatLonWithAltitude) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += DistanceMeters(points[i-1], points[i])
	}
	return length
}
