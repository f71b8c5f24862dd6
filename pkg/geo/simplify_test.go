package geo

import (
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestSimplifyPolyline(t *testing.T) {
	ll := datastructure.NewLatLon

	t.Run("straight road", func(t *testing.T) {
		// the middle point is about 1 m off the line.
		line := []datastructure.LatLonWithAltitude{ll(0, 0), ll(0.00001, 0.005), ll(0, 0.01)}
		assert.Equal(t, []datastructure.LatLonWithAltitude{ll(0, 0), ll(0, 0.01)},
			SimplifyPolyline(line, DefaultSimplifyTolerance))
	})

	t.Run("corner", func(t *testing.T) {
		line := []datastructure.LatLonWithAltitude{ll(0, 0), ll(0, 0.01), ll(0.01, 0.01)}
		assert.Equal(t, line, SimplifyPolyline(line, DefaultSimplifyTolerance))
	})

	t.Run("zigzag keeps the far points", func(t *testing.T) {
		line := []datastructure.LatLonWithAltitude{
			ll(0, 0), ll(0, 0.001), ll(0.001, 0.002), ll(0.0005, 0.003), ll(0, 0.004),
		}
		simplified := SimplifyPolyline(line, DefaultSimplifyTolerance)
		assert.Contains(t, simplified, ll(0.001, 0.002))
		assert.NotContains(t, simplified, ll(0.0005, 0.003))
		assert.Equal(t, line[0], simplified[0])
		assert.Equal(t, line[4], simplified[len(simplified)-1])
	})

	t.Run("short", func(t *testing.T) {
		line := []datastructure.LatLonWithAltitude{ll(0, 0), ll(1, 1)}
		assert.Equal(t, line, SimplifyPolyline(line, DefaultSimplifyTolerance))
	})
}
