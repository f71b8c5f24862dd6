package kv

import (
	"context"
	"errors"
	"math"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/uber/h3-go/v4"
)

// H3Locator finds the tiles a route may need: the tiles indexed under the cells around every
// checkpoint and along the straight line of every leg.
type H3Locator struct {
	store *TileStore
	// searchRadiusKm around each checkpoint.
	searchRadiusKm float64
}

func NewH3Locator(store *TileStore, searchRadiusKm float64) *H3Locator {
	return &H3Locator{store: store, searchRadiusKm: searchRadiusKm}
}

// Locate implements router.Locator. The ids are ascending.
func (l *H3Locator) Locate(ctx context.Context, checkpoints []datastructure.LatLonWithAltitude) ([]datastructure.TileID, error) {
	res := l.store.Resolution()
	cells := make(map[h3.Cell]struct{})
	var prev h3.Cell
	for i, p := range checkpoints {
		cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), res)
		for _, c := range kRingIndexesArea(cell, l.searchRadiusKm) {
			cells[c] = struct{}{}
		}
		if i > 0 {
			for _, c := range h3.GridPath(prev, cell) {
				cells[c] = struct{}{}
			}
		}
		prev = cell
	}

	ids := make(map[datastructure.TileID]struct{})
	for c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tiles, err := l.store.cellTiles(c)
		if errors.Is(err, ErrCellNotIndexed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, id := range tiles {
			ids[id] = struct{}{}
		}
	}
	return sortedIDs(ids), nil
}

// kRingIndexesArea returns the disk of cells around origin covering a circle of searchRadiusKm.
func kRingIndexesArea(origin h3.Cell, searchRadiusKm float64) []h3.Cell {
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea

	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	return h3.GridDisk(origin, radius)
}
