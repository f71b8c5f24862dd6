package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/indexgraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/slog"
)

var (
	ErrUnknownMode       = errors.New("unknown travel mode")
	ErrTooFewCheckpoints = errors.New("a route needs at least two checkpoints")
)

// Locator returns the tiles a route through checkpoints may need.
type Locator interface {
	Locate(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude) ([]datastructure.TileID, error)
}

type Config struct {
	// UTurnPenalty seconds, car only.
	UTurnPenalty       float64
	OffroadSpeedKMH    float64
	PedestrianSpeedKMH float64
	// TransitMaxSpeedKMH bounds the heuristic in transit mode.
	TransitMaxSpeedKMH float64
	// SnapRadius meters around a checkpoint or a transit gate searched for roads.
	SnapRadius float64
	// GuidesRadius meters around a checkpoint or a track end searched for guide tracks and roads.
	GuidesRadius  float64
	Timeout       time.Duration
	CheckInterval int
}

func DefaultConfig() Config {
	return Config{
		UTurnPenalty:       indexgraph.DefaultUTurnPenalty,
		OffroadSpeedKMH:    indexgraph.DefaultOffroadSpeedKMH,
		PedestrianSpeedKMH: indexgraph.DefaultPedestrianSpeedKMH,
		TransitMaxSpeedKMH: 60,
		SnapRadius:         100,
		GuidesRadius:       30,
		Timeout:            10 * time.Second,
		CheckInterval:      100,
	}
}

// Router answers route queries over the tiles of a registry. It is safe for concurrent use,
// every query builds its own graphs.
type Router struct {
	registry *tile.Registry
	locator  Locator
	cfg      Config

	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRouter reg may be nil.
func NewRouter(registry *tile.Registry, locator Locator, cfg Config, reg prometheus.Registerer) *Router {
	factory := promauto.With(reg)
	return &Router{
		registry: registry,
		locator:  locator,
		cfg:      cfg,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "navigatorx_route_queries_total",
			Help: "Number of route queries by travel mode and result code",
		}, []string{"mode", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "navigatorx_route_query_duration_seconds",
			Help:    "Route query latency by travel mode",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
}

func (r *Router) Config() Config {
	return r.cfg
}

// CalculateRoute finds the best route through checkpoints in order. Failures of the query itself
// are reported in RouteResult.Code, the error is for bad arguments and storage failures.
func (r *Router) CalculateRoute(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude, mode Mode) (*RouteResult, error) {
	if len(checkpoints) < 2 {
		return nil, ErrTooFewCheckpoints
	}
	if mode > ModeTransit {
		return nil, fmt.Errorf("%v: %w", mode, ErrUnknownMode)
	}

	started := time.Now()
	q := newQuery(r.cfg, mode)
	q.log.Debug("route query started", "checkpoints", len(checkpoints))

	result, err := r.calculate(ctx, q, checkpoints)
	if err != nil {
		q.log.Error("route query failed", "error", err)
		return nil, err
	}

	r.queries.WithLabelValues(mode.String(), result.Code.String()).Inc()
	r.duration.WithLabelValues(mode.String()).Observe(time.Since(started).Seconds())
	q.log.Info("route query done", "code", result.Code.String(), "weight", result.Weight.Weight,
		"segments", len(result.Segments), "took", time.Since(started))
	return result, nil
}

func (r *Router) calculate(ctx context.Context, q *query, checkpoints []datastructure.LatLonWithAltitude) (*RouteResult, error) {
	result := &RouteResult{QueryID: q.id.String()}

	tiles, code, err := r.loadTiles(ctx, q, checkpoints)
	if err != nil {
		return nil, err
	}
	if code != NoError {
		result.Code = code
		return result, nil
	}

	q.build(tiles)
	result.Code = q.route(ctx, checkpoints, result)
	return result, nil
}

// loadTiles loads every tile the locator names, all of them before the search starts.
func (r *Router) loadTiles(ctx context.Context, q *query, checkpoints []datastructure.LatLonWithAltitude) (map[datastructure.TileID]*tile.Tile, ResultCode, error) {
	ids, err := r.locator.Locate(ctx, checkpoints)
	if err != nil {
		return nil, NoError, fmt.Errorf("locate tiles: %w", err)
	}
	if len(ids) == 0 {
		q.log.Warn("no tile covers the checkpoints")
		return nil, NeedMoreMaps, nil
	}
	for _, id := range ids {
		if !r.registry.IsAlive(ctx, id) {
			q.log.Warn("tile is not alive", "tile", id)
			return nil, NeedMoreMaps, nil
		}
	}

	tiles, err := r.registry.GetTiles(ctx, ids)
	switch {
	case errors.Is(err, tile.ErrTileNotAlive):
		q.log.Warn("tile went away while loading", "error", err)
		return nil, NeedMoreMaps, nil
	case ctx.Err() != nil:
		return nil, Cancelled, nil
	case err != nil:
		return nil, NoError, err
	}
	return tiles, NoError, nil
}

func newQuery(cfg Config, mode Mode) *query {
	id := uuid.New()
	return &query{
		id:    id,
		mode:  mode,
		cfg:   cfg,
		log:   slog.With("query_id", id.String(), "mode", mode.String()),
		alloc: datastructure.NewIDAllocator(),
	}
}

func newEstimator(cfg Config, mode Mode) indexgraph.EdgeEstimator {
	switch mode {
	case ModePedestrian:
		return indexgraph.NewPedestrianEstimator(cfg.PedestrianSpeedKMH, cfg.PedestrianSpeedKMH)
	case ModeTransit:
		return indexgraph.NewPedestrianEstimator(cfg.PedestrianSpeedKMH, cfg.TransitMaxSpeedKMH)
	default:
		return indexgraph.NewCarEstimator(cfg.UTurnPenalty, cfg.OffroadSpeedKMH)
	}
}
