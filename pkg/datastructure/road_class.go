package datastructure

const (
	MaxRoadSpeedKMH     = 95.0
	defaultRoadSpeedKMH = 40.0
)

// km/h when a road has no maxspeed tag.
var roadClassSpeed = map[string]float64{
	"motorway":       95,
	"motorway_link":  90,
	"trunk":          85,
	"trunk_link":     80,
	"primary":        75,
	"primary_link":   70,
	"secondary":      65,
	"secondary_link": 60,
	"tertiary":       50,
	"tertiary_link":  50,
	"unclassified":   50,
	"residential":    30,
	"service":        20,
	"living_street":  20,
	"track":          15,
	"footway":        5,
	"pedestrian":     5,
	"path":           5,
	"steps":          3,
}

// RoadTypeMaxSpeed km/h for an osm highway class.
func RoadTypeMaxSpeed(roadType string) float64 {
	if speed, ok := roadClassSpeed[roadType]; ok {
		return speed
	}
	return defaultRoadSpeedKMH
}
