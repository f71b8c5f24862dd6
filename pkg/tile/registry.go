package tile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/slog"
)

var (
	// ErrTileNotAlive the tile is not registered in the source, the caller has to download/load it.
	ErrTileNotAlive = errors.New("tile is not alive")
)

// Source provides deserialized tiles.
type Source interface {
	// LoadTile returns ErrTileNotAlive (wrapped) if the source does not have the tile.
	LoadTile(ctx context.Context, id datastructure.TileID) (*Data, error)
	HasTile(ctx context.Context, id datastructure.TileID) bool
}

type RegistryConfig struct {
	// MaxCost total road points of cached tiles.
	MaxCost     int64
	NumCounters int64
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxCost:     50_000_000,
		NumCounters: 10_000,
	}
}

// Registry is a bounded cache of built tiles in front of a Source. A query holds *Tile pointers,
// an evicted tile stays usable by the queries that already got it.
type Registry struct {
	source Source
	cache  *ristretto.Cache[uint32, *Tile]

	// one build per tile at a time.
	mu      sync.Mutex
	loading map[datastructure.TileID]*sync.Mutex

	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewRegistry reg may be nil.
func NewRegistry(source Source, cfg RegistryConfig, reg prometheus.Registerer) (*Registry, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, *Tile]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
		// cost is the number of road points, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}

	factory := promauto.With(reg)
	return &Registry{
		source:  source,
		cache:   cache,
		loading: make(map[datastructure.TileID]*sync.Mutex),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigatorx_tile_cache_hits_total",
			Help: "Number of tile lookups served from the tile cache",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "navigatorx_tile_cache_misses_total",
			Help: "Number of tile lookups that had to build the tile",
		}),
	}, nil
}

func (r *Registry) tileLock(id datastructure.TileID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loading[id]
	if !ok {
		l = &sync.Mutex{}
		r.loading[id] = l
	}
	return l
}

// IsAlive reports whether the source has tile id.
func (r *Registry) IsAlive(ctx context.Context, id datastructure.TileID) bool {
	if _, ok := r.cache.Get(uint32(id)); ok {
		return true
	}
	return r.source.HasTile(ctx, id)
}

// GetTile returns the built tile id, loading it from the source on a cache miss.
func (r *Registry) GetTile(ctx context.Context, id datastructure.TileID) (*Tile, error) {
	if t, ok := r.cache.Get(uint32(id)); ok {
		r.hits.Inc()
		return t, nil
	}

	l := r.tileLock(id)
	l.Lock()
	defer l.Unlock()

	// built by another query while waiting.
	if t, ok := r.cache.Get(uint32(id)); ok {
		r.hits.Inc()
		return t, nil
	}
	r.misses.Inc()

	data, err := r.source.LoadTile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tile %d: %w", id, err)
	}
	t, err := NewTile(data)
	if err != nil {
		return nil, err
	}

	if !r.cache.Set(uint32(id), t, data.NumPoints()) {
		slog.Debug("tile not admitted to cache", "tile", id)
	}
	r.cache.Wait()
	return t, nil
}

// GetTiles loads every tile in ids. It fails on the first missing tile.
func (r *Registry) GetTiles(ctx context.Context, ids []datastructure.TileID) (map[datastructure.TileID]*Tile, error) {
	tiles := make(map[datastructure.TileID]*Tile, len(ids))
	for _, id := range ids {
		if _, ok := tiles[id]; ok {
			continue
		}
		t, err := r.GetTile(ctx, id)
		if err != nil {
			return nil, err
		}
		tiles[id] = t
	}
	return tiles, nil
}

// Evict drops tile id from the cache.
func (r *Registry) Evict(id datastructure.TileID) {
	r.cache.Del(uint32(id))
}

func (r *Registry) Close() {
	r.cache.Close()
}

// MemorySource keeps tile data in memory.
type MemorySource struct {
	mu    sync.RWMutex
	tiles map[datastructure.TileID]*Data
}

func NewMemorySource(tiles ...*Data) *MemorySource {
	s := &MemorySource{tiles: make(map[datastructure.TileID]*Data)}
	for _, t := range tiles {
		s.Put(t)
	}
	return s
}

func (s *MemorySource) Put(data *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[data.ID] = data
}

func (s *MemorySource) Remove(id datastructure.TileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tiles, id)
}

func (s *MemorySource) LoadTile(ctx context.Context, id datastructure.TileID) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tiles[id]
	if !ok {
		return nil, fmt.Errorf("memory source: tile %d: %w", id, ErrTileNotAlive)
	}
	return data, nil
}

func (s *MemorySource) HasTile(ctx context.Context, id datastructure.TileID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tiles[id]
	return ok
}

// IDs of all tiles in the source.
func (s *MemorySource) IDs() []datastructure.TileID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]datastructure.TileID, 0, len(s.tiles))
	for id := range s.tiles {
		ids = append(ids, id)
	}
	return ids
}
