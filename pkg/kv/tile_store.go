package kv

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/concurrent"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/uber/h3-go/v4"
	"golang.org/x/exp/slog"
)

const (
	tilePrefix = "t/"
	cellPrefix = "c/"
	// DefaultResolution of the cell index, an edge is about 1.2 km long.
	DefaultResolution = 7
)

var (
	ErrCellNotIndexed = errors.New("cell not indexed")
)

// TileStore keeps the tiles in badger, zstd compressed, and indexes them by the h3 cells
// their points fall in.
type TileStore struct {
	db         *badger.DB
	resolution int
}

func NewTileStore(db *badger.DB, resolution int) *TileStore {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &TileStore{db: db, resolution: resolution}
}

// OpenTileStore opens (or creates) the badger database at dir.
func OpenTileStore(dir string, resolution int) (*TileStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open tile store %s: %w", dir, err)
	}
	return NewTileStore(db, resolution), nil
}

// OpenInMemoryTileStore is a store that lives as long as the process, used to serve snapshots.
func OpenInMemoryTileStore(resolution int) (*TileStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory tile store: %w", err)
	}
	return NewTileStore(db, resolution), nil
}

func (k *TileStore) Resolution() int {
	return k.resolution
}

func tileKey(id datastructure.TileID) []byte {
	return []byte(tilePrefix + strconv.FormatUint(uint64(id), 10))
}

func cellKey(cell h3.Cell) []byte {
	return []byte(cellPrefix + cell.String())
}

type encodedTile struct {
	id    datastructure.TileID
	value []byte
	cells []h3.Cell
	err   error
}

// SaveTiles encodes tiles on all cores and writes them with their cell index in batches.
// Cells already indexed keep their other tiles.
func (k *TileStore) SaveTiles(ctx context.Context, tiles []*tile.Data) error {
	slog.Info("saving tiles to key-value db...", "tiles", len(tiles))

	workers := concurrent.NewWorkerPool[*tile.Data, encodedTile](runtime.NumCPU(), len(tiles))
	for _, t := range tiles {
		workers.AddJob(t)
	}
	workers.Close()
	workers.Start(func(t *tile.Data) encodedTile {
		value, err := encodeTile(t)
		return encodedTile{id: t.ID, value: value, cells: k.tileCells(t), err: err}
	})
	workers.Wait()

	cellTiles := make(map[h3.Cell]map[datastructure.TileID]struct{})
	batches := make([]batchData, 0, batchSize)
	for enc := range workers.CollectResults() {
		if enc.err != nil {
			return enc.err
		}
		for _, c := range enc.cells {
			if cellTiles[c] == nil {
				cellTiles[c] = make(map[datastructure.TileID]struct{})
			}
			cellTiles[c][enc.id] = struct{}{}
		}
		batches = append(batches, batchData{key: tileKey(enc.id), value: enc.value})
		if len(batches) == batchSize {
			if err := k.saveBatch(ctx, batches); err != nil {
				return err
			}
			batches = batches[:0]
		}
	}

	for cell, ids := range cellTiles {
		merged, err := k.cellTiles(cell)
		if err != nil && !errors.Is(err, ErrCellNotIndexed) {
			return err
		}
		for _, id := range merged {
			ids[id] = struct{}{}
		}
		value, err := encodeTileIDs(sortedIDs(ids))
		if err != nil {
			return err
		}
		batches = append(batches, batchData{key: cellKey(cell), value: value})
		if len(batches) == batchSize {
			if err := k.saveBatch(ctx, batches); err != nil {
				return err
			}
			batches = batches[:0]
		}
	}

	if len(batches) > 0 {
		if err := k.saveBatch(ctx, batches); err != nil {
			return err
		}
	}

	slog.Info("saving tiles to key-value db done", "tiles", len(tiles), "cells", len(cellTiles))
	return nil
}

func sortedIDs(set map[datastructure.TileID]struct{}) []datastructure.TileID {
	ids := make([]datastructure.TileID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// tileCells are the cells of every road, track and transit point of t.
func (k *TileStore) tileCells(t *tile.Data) []h3.Cell {
	seen := make(map[h3.Cell]struct{})
	add := func(p datastructure.LatLonWithAltitude) {
		seen[h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), k.resolution)] = struct{}{}
	}
	for _, r := range t.Roads {
		for _, p := range r.Points {
			add(p)
		}
	}
	for _, g := range t.Guides {
		for _, p := range g.Points {
			add(p)
		}
	}
	for _, s := range t.Transit.Stops {
		add(s.Point)
	}

	cells := make([]h3.Cell, 0, len(seen))
	for c := range seen {
		cells = append(cells, c)
	}
	return cells
}

const batchSize = 1000

type batchData struct {
	key   []byte
	value []byte
}

func (k *TileStore) saveBatch(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := batch.Set(data.key, data.value); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	slog.Debug("batch saved", "keys", len(batchData))
	return nil
}

func (k *TileStore) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// LoadTile implements tile.Source.
func (k *TileStore) LoadTile(ctx context.Context, id datastructure.TileID) (*tile.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := k.get(tileKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("tile store: tile %d: %w", id, tile.ErrTileNotAlive)
	}
	if err != nil {
		return nil, fmt.Errorf("tile store: tile %d: %w", id, err)
	}
	return decodeTile(val)
}

// HasTile implements tile.Source.
func (k *TileStore) HasTile(ctx context.Context, id datastructure.TileID) bool {
	err := k.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(tileKey(id))
		return err
	})
	return err == nil
}

// DeleteTile removes the tile, its ids stay in the cell index and make queries
// answer NeedMoreMaps until the tile is saved again.
func (k *TileStore) DeleteTile(id datastructure.TileID) error {
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(tileKey(id))
	})
}

// TileIDs returns the ids of all stored tiles, ascending.
func (k *TileStore) TileIDs() ([]datastructure.TileID, error) {
	ids := make([]datastructure.TileID, 0)
	err := k.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(tilePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), tilePrefix)
			id, err := strconv.ParseUint(key, 10, 32)
			if err != nil {
				return fmt.Errorf("bad tile key %q: %w", key, err)
			}
			ids = append(ids, datastructure.TileID(id))
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

// cellTiles returns the tiles indexed under cell.
func (k *TileStore) cellTiles(cell h3.Cell) ([]datastructure.TileID, error) {
	val, err := k.get(cellKey(cell))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", cell.String(), ErrCellNotIndexed)
	}
	if err != nil {
		return nil, err
	}
	return decodeTileIDs(val)
}

func (k *TileStore) Close() error {
	return k.db.Close()
}
