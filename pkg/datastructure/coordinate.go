package datastructure

import (
	"github.com/twpayne/go-polyline"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func NewCoordinates(lat, lon []float64) []Coordinate {
	coords := make([]Coordinate, len(lat))
	for i := range lat {
		coords[i] = NewCoordinate(lat[i], lon[i])
	}
	return coords
}

// LatLonWithAltitude altitude in meters.
type LatLonWithAltitude struct {
	Coordinate
	Altitude float64 `json:"altitude"`
}

func NewLatLonWithAltitude(lat, lon, altitude float64) LatLonWithAltitude {
	return LatLonWithAltitude{
		Coordinate: NewCoordinate(lat, lon),
		Altitude:   altitude,
	}
}

func NewLatLon(lat, lon float64) LatLonWithAltitude {
	return NewLatLonWithAltitude(lat, lon, 0)
}

func (p LatLonWithAltitude) GetLatLon() Coordinate {
	return p.Coordinate
}

func CreatePolyline(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
