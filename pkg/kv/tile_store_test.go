package kv

import (
	"context"
	"testing"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/h3-go/v4"
)

func newTestStore(t *testing.T) *TileStore {
	store, err := OpenInMemoryTileStore(DefaultResolution)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func tileAt(id datastructure.TileID, lat, lon float64) *tile.Data {
	ll := datastructure.NewLatLon
	return &tile.Data{
		ID:   id,
		Name: "tile",
		Roads: []tile.Road{{
			Feature:            1,
			Points:             []datastructure.LatLonWithAltitude{ll(lat, lon), ll(lat, lon+0.001)},
			NodeIDs:            []int64{1, 2},
			Class:              "primary",
			MaxSpeed:           50,
			PassThroughAllowed: true,
			Car:                true,
		}},
		Restrictions: []restriction.Restriction{restriction.NewRestriction(restriction.KindNo, 1, 1)},
		Guides: []tile.GuideTrack{{
			ID: 3, Title: "walk", Points: []datastructure.LatLonWithAltitude{ll(lat, lon), ll(lat+0.001, lon)},
		}},
		Borders: []tile.BorderPoint{{Feature: 1, PointIdx: 1, Key: "node-2"}},
	}
}

func TestTileStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	in := tileAt(7, -7.77, 110.37)
	require.NoError(t, store.SaveTiles(ctx, []*tile.Data{in, tileAt(8, -7.80, 110.40)}))

	assert.True(t, store.HasTile(ctx, 7))
	assert.False(t, store.HasTile(ctx, 9))

	out, err := store.LoadTile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Roads, out.Roads)
	assert.Equal(t, in.Restrictions, out.Restrictions)
	assert.Equal(t, in.Guides, out.Guides)
	assert.Equal(t, in.Borders, out.Borders)

	_, err = store.LoadTile(ctx, 9)
	assert.ErrorIs(t, err, tile.ErrTileNotAlive)

	ids, err := store.TileIDs()
	require.NoError(t, err)
	assert.Equal(t, []datastructure.TileID{7, 8}, ids)

	require.NoError(t, store.DeleteTile(8))
	assert.False(t, store.HasTile(ctx, 8))
}

func TestTileStoreAsSource(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveTiles(context.Background(), []*tile.Data{tileAt(1, -7.77, 110.37)}))

	registry, err := tile.NewRegistry(store, tile.DefaultRegistryConfig(), nil)
	require.NoError(t, err)
	defer registry.Close()

	tl, err := registry.GetTile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tl.NumRoads())
}

func TestH3Locator(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveTiles(ctx, []*tile.Data{
		tileAt(1, -7.77, 110.37),
		tileAt(2, -7.77, 110.60),
		tileAt(3, 1.30, 103.80),
	}))
	// a second save keeps the ids of the first one in shared cells.
	require.NoError(t, store.SaveTiles(ctx, []*tile.Data{tileAt(4, -7.77, 110.3705)}))

	locator := NewH3Locator(store, 1)

	ids, err := locator.Locate(ctx, []datastructure.LatLonWithAltitude{datastructure.NewLatLon(-7.77, 110.37)})
	require.NoError(t, err)
	assert.Equal(t, []datastructure.TileID{1, 4}, ids)

	// the leg crosses the cells between the two tiles.
	ids, err = locator.Locate(ctx, []datastructure.LatLonWithAltitude{
		datastructure.NewLatLon(-7.77, 110.37), datastructure.NewLatLon(-7.77, 110.60),
	})
	require.NoError(t, err)
	assert.Equal(t, []datastructure.TileID{1, 2, 4}, ids)

	ids, err = locator.Locate(ctx, []datastructure.LatLonWithAltitude{datastructure.NewLatLon(40, -70)})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestH3LocatorLegCells(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	from, to := datastructure.NewLatLon(-7.77, 110.37), datastructure.NewLatLon(-7.77, 110.60)
	path := h3.GridPath(
		h3.LatLngToCell(h3.NewLatLng(from.Lat, from.Lon), DefaultResolution),
		h3.LatLngToCell(h3.NewLatLng(to.Lat, to.Lon), DefaultResolution),
	)
	require.Greater(t, len(path), 4)
	middle := h3.CellToLatLng(path[len(path)/2])
	require.NoError(t, store.SaveTiles(ctx, []*tile.Data{tileAt(5, middle.Lat, middle.Lng)}))

	locator := NewH3Locator(store, 1)

	// a checkpoint alone does not reach the middle tile.
	ids, err := locator.Locate(ctx, []datastructure.LatLonWithAltitude{from})
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = locator.Locate(ctx, []datastructure.LatLonWithAltitude{from, to})
	require.NoError(t, err)
	assert.Equal(t, []datastructure.TileID{5}, ids)
}
