package router

import (
	"context"
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLocator []datastructure.TileID

func (l staticLocator) Locate(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude) ([]datastructure.TileID, error) {
	return l, nil
}

var (
	pointA = datastructure.NewLatLon(0, 0)
	pointB = datastructure.NewLatLon(0, 0.01)
	pointC = datastructure.NewLatLon(0.01, 0.01)
	pointD = datastructure.NewLatLon(0.01, 0)
)

func residential(feature datastructure.FeatureID, nodes []int64, points ...datastructure.LatLonWithAltitude) tile.Road {
	return tile.Road{
		Feature:            feature,
		Points:             points,
		NodeIDs:            nodes,
		Class:              "residential",
		PassThroughAllowed: true,
		Pedestrian:         true,
		Car:                true,
	}
}

// square A B C D of four two-segment roads.
func gridData() *tile.Data {
	ll := datastructure.NewLatLon
	return &tile.Data{
		ID:   1,
		Name: "grid",
		Roads: []tile.Road{
			residential(1, []int64{1, 2, 3}, pointA, ll(0, 0.005), pointB),
			residential(2, []int64{3, 4, 5}, pointB, ll(0.005, 0.01), pointC),
			residential(3, []int64{5, 6, 7}, pointC, ll(0.01, 0.005), pointD),
			residential(4, []int64{7, 8, 1}, pointD, ll(0.005, 0), pointA),
		},
	}
}

func newTestRouter(t *testing.T, locator Locator, reg prometheus.Registerer, data ...*tile.Data) *Router {
	registry, err := tile.NewRegistry(tile.NewMemorySource(data...), tile.DefaultRegistryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	return NewRouter(registry, locator, DefaultConfig(), reg)
}

func segmentWeights(result *RouteResult) float64 {
	total := 0.0
	for _, s := range result.Segments {
		total += s.Weight.Weight
	}
	return total
}

func TestCalculateRoute(t *testing.T) {
	r := newTestRouter(t, staticLocator{1}, nil, gridData())

	for _, mode := range []Mode{ModeCar, ModePedestrian} {
		t.Run(mode.String(), func(t *testing.T) {
			result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, mode)
			require.NoError(t, err)
			require.Equal(t, NoError, result.Code)
			assert.NotEmpty(t, result.QueryID)
			require.Len(t, result.Legs, 1)
			assert.Equal(t, result.Legs[0], result.Weight)

			assert.InDelta(t, 2224, result.Distance(), 5)
			assert.InDelta(t, result.Weight.Weight, segmentWeights(result), 1e-6)
			points := result.Points()
			assert.Equal(t, pointA, points[0])
			assert.Equal(t, pointC, points[len(points)-1])
			assert.NotEmpty(t, result.Polyline)
		})
	}
}

func TestCalculateRouteSlicesRoad(t *testing.T) {
	r := newTestRouter(t, staticLocator{1}, nil, gridData())

	// both checkpoints on road 1, no real segment is needed.
	from, to := datastructure.NewLatLon(0, 0.001), datastructure.NewLatLon(0, 0.004)
	result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{from, to}, ModeCar)
	require.NoError(t, err)
	require.Equal(t, NoError, result.Code)

	assert.InDelta(t, 333.6, result.Distance(), 1)
	for _, s := range result.Segments {
		require.True(t, s.Segment.IsFake())
		if s.HasReal {
			assert.Equal(t, datastructure.NewSegment(1, 1, 0, true), s.Real)
		}
	}
}

func TestCalculateRouteCheckpoints(t *testing.T) {
	r := newTestRouter(t, staticLocator{1}, nil, gridData())

	result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointB, pointC}, ModeCar)
	require.NoError(t, err)
	require.Equal(t, NoError, result.Code)
	require.Len(t, result.Legs, 2)
	assert.InDelta(t, result.Legs[0].Weight+result.Legs[1].Weight, result.Weight.Weight, 1e-9)
	assert.InDelta(t, result.Legs[0].Weight, result.Legs[1].Weight, 1e-3)
	assert.InDelta(t, 2224, result.Distance(), 5)

	// back to the start, the second leg turns around at B.
	result, err = r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointB, pointA}, ModePedestrian)
	require.NoError(t, err)
	require.Equal(t, NoError, result.Code)
	assert.InDelta(t, 2224, result.Distance(), 5)
	points := result.Points()
	assert.Equal(t, pointA, points[len(points)-1])
}

func TestCalculateRouteCodes(t *testing.T) {
	far := datastructure.NewLatLon(1, 1)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name        string
		locator     Locator
		ctx         context.Context
		checkpoints []datastructure.LatLonWithAltitude
		want        ResultCode
	}{
		{"missing tile", staticLocator{1, 2}, context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, NeedMoreMaps},
		{"no tiles", staticLocator{}, context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, NeedMoreMaps},
		{"start off road", staticLocator{1}, context.Background(), []datastructure.LatLonWithAltitude{far, pointC}, StartPointNotFound},
		{"end off road", staticLocator{1}, context.Background(), []datastructure.LatLonWithAltitude{pointA, far}, EndPointNotFound},
		{"middle off road", staticLocator{1}, context.Background(), []datastructure.LatLonWithAltitude{pointA, far, pointC}, EndPointNotFound},
		{"cancelled", staticLocator{1}, cancelled, []datastructure.LatLonWithAltitude{pointA, pointC}, Cancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.locator, nil, gridData())
			result, err := r.CalculateRoute(tt.ctx, tt.checkpoints, ModeCar)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Code)
			assert.Empty(t, result.Segments)
		})
	}
}

func TestCalculateRouteNotFound(t *testing.T) {
	data := gridData()
	// an island road far from the square.
	data.Roads = append(data.Roads, residential(5, []int64{10, 11}, datastructure.NewLatLon(0.05, 0.05), datastructure.NewLatLon(0.05, 0.06)))
	r := newTestRouter(t, staticLocator{1}, nil, data)

	result, err := r.CalculateRoute(context.Background(),
		[]datastructure.LatLonWithAltitude{pointA, datastructure.NewLatLon(0.05, 0.055)}, ModeCar)
	require.NoError(t, err)
	assert.Equal(t, RouteNotFound, result.Code)
}

func TestCalculateRouteBadArguments(t *testing.T) {
	r := newTestRouter(t, staticLocator{1}, nil, gridData())

	_, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA}, ModeCar)
	assert.ErrorIs(t, err, ErrTooFewCheckpoints)

	_, err = r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, Mode(7))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCalculateRouteGuides(t *testing.T) {
	data := gridData()
	data.Guides = []tile.GuideTrack{{ID: 1, Title: "diagonal", Points: []datastructure.LatLonWithAltitude{pointA, pointC}}}
	r := newTestRouter(t, staticLocator{1}, nil, data)

	walk, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, ModePedestrian)
	require.NoError(t, err)
	require.Equal(t, NoError, walk.Code)
	assert.InDelta(t, 1572.5, walk.Distance(), 5)

	guided := false
	for _, s := range walk.Segments {
		guided = guided || s.Segment.IsGuidesFake() || (s.HasReal && s.Real.IsGuidesFake())
	}
	assert.True(t, guided)

	// cars ignore the tracks.
	car, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, ModeCar)
	require.NoError(t, err)
	require.Equal(t, NoError, car.Code)
	assert.InDelta(t, 2224, car.Distance(), 5)
}

func TestRouterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(t, staticLocator{1}, reg, gridData())

	for i := 0; i < 2; i++ {
		_, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, pointC}, ModeCar)
		require.NoError(t, err)
	}
	_, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{pointA, datastructure.NewLatLon(1, 1)}, ModeCar)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.queries.WithLabelValues("car", "no_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("car", "end_point_not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCar, "car": ModeCar, "Walk": ModePedestrian, "pedestrian": ModePedestrian, "transit": ModeTransit} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("plane")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func transitData(interval float64) *tile.Data {
	ll := datastructure.NewLatLon
	g1, g2 := ll(0.0001, 0.0005), ll(0.0099, 0.0095)
	data := gridData()
	data.Transit = tile.TransitData{
		Stops: []tile.TransitStop{{ID: 1, Point: g1}, {ID: 2, Point: g2}},
		Lines: []tile.TransitLine{{ID: 1, Title: "1A", Interval: interval}},
		Edges: []tile.TransitEdge{{ID: 1, LineID: 1, Stop1: 1, Stop2: 2, Weight: 120}},
		Gates: []tile.TransitGate{
			{ID: 1, Point: g1, StopIDs: []uint32{1}, Entrance: true, Exit: true, Weight: 10},
			{ID: 2, Point: g2, StopIDs: []uint32{2}, Entrance: true, Exit: true, Weight: 10},
		},
	}
	return data
}

func TestCalculateRouteTransit(t *testing.T) {
	ll := datastructure.NewLatLon
	// the gates lie about 11 m off road 1 and road 3, next to the checkpoints.
	from, to := ll(0, 0.0002), ll(0.01, 0.0098)
	walkSpeed := DefaultConfig().PedestrianSpeedKMH / 3.6
	walk := func(points ...datastructure.LatLonWithAltitude) float64 {
		meters := 0.0
		for i := 0; i+1 < len(points); i++ {
			meters += geo.DistanceMeters(points[i], points[i+1])
		}
		return meters / walkSpeed
	}

	t.Run("line", func(t *testing.T) {
		r := newTestRouter(t, staticLocator{1}, nil, transitData(60))
		result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{from, to}, ModeTransit)
		require.NoError(t, err)
		require.Equal(t, NoError, result.Code)

		// two gates, half of the interval waiting and the ride.
		onBoard := 10 + 60/2 + 120 + 10.0
		want := walk(from, ll(0, 0.0005), ll(0.0001, 0.0005)) + onBoard + walk(ll(0.0099, 0.0095), ll(0.01, 0.0095), to)
		assert.InDelta(t, want, result.Weight.Weight, 0.1)
		assert.InDelta(t, onBoard, result.Weight.TransitTime, 1e-6)
		assert.InDelta(t, result.Weight.Weight, segmentWeights(result), 1e-6)

		rides := 0
		for _, s := range result.Segments {
			if s.Transit && s.Weight.TransitTime == 120 {
				rides++
			}
		}
		assert.Equal(t, 1, rides)
	})

	t.Run("walking is faster than waiting", func(t *testing.T) {
		r := newTestRouter(t, staticLocator{1}, nil, transitData(7200))
		result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{from, to}, ModeTransit)
		require.NoError(t, err)
		require.Equal(t, NoError, result.Code)
		assert.Zero(t, result.Weight.TransitTime)

		walked, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{from, to}, ModePedestrian)
		require.NoError(t, err)
		assert.InDelta(t, walked.Weight.Weight, result.Weight.Weight, 1e-6)
	})

	t.Run("pedestrians do not board", func(t *testing.T) {
		r := newTestRouter(t, staticLocator{1}, nil, transitData(60))
		result, err := r.CalculateRoute(context.Background(), []datastructure.LatLonWithAltitude{from, to}, ModePedestrian)
		require.NoError(t, err)
		require.Equal(t, NoError, result.Code)
		assert.Zero(t, result.Weight.TransitTime)
		assert.Greater(t, result.Weight.Weight, 1500.0)
	})
}
