package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoadTypeMaxSpeed(t *testing.T) {
	assert.Equal(t, MaxRoadSpeedKMH, RoadTypeMaxSpeed("motorway"))
	assert.Equal(t, 30.0, RoadTypeMaxSpeed("residential"))
	assert.Equal(t, defaultRoadSpeedKMH, RoadTypeMaxSpeed("raceway"))
	for class, speed := range roadClassSpeed {
		assert.LessOrEqual(t, speed, MaxRoadSpeedKMH, class)
	}
}
