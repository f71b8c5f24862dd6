package osmparser

import (
	"fmt"
	"sort"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/util"
	"github.com/uber/h3-go/v4"
	"golang.org/x/exp/slog"
)

// BorderKey is the key of the border points at osm node id.
func BorderKey(nodeID int64) string {
	return fmt.Sprintf("node-%d", nodeID)
}

type featureRef struct {
	tile    datastructure.TileID
	feature datastructure.FeatureID
	road    int
}

type tileBuilder struct {
	tiles  map[h3.Cell]*tile.Data
	byID   map[datastructure.TileID]*tile.Data
	cellID map[h3.Cell]datastructure.TileID

	nextFeature datastructure.FeatureID
	// features of every osm way, one per tile the way passes.
	features map[int64][]featureRef
	// nodes where a way leaves a tile.
	borderNodes map[int64]struct{}
}

// BuildTiles partitions the parsed roads into one tile per h3 cell of their points. A way that
// crosses cells is cut into one road per cell, the cut node is a border point of both roads.
func (p *OsmParser) BuildTiles() []*tile.Data {
	b := &tileBuilder{
		tiles:       make(map[h3.Cell]*tile.Data),
		byID:        make(map[datastructure.TileID]*tile.Data),
		cellID:      make(map[h3.Cell]datastructure.TileID),
		nextFeature: 1,
		features:    make(map[int64][]featureRef),
		borderNodes: make(map[int64]struct{}),
	}
	b.assignTiles(p)

	for _, w := range p.ways {
		b.addWay(p, w)
	}
	b.addBorders()
	b.addRestrictions(p)
	b.addGuides(p)
	b.addTransit(p)

	result := make([]*tile.Data, 0, len(b.byID))
	for _, t := range b.byID {
		if len(t.Roads) > 0 {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	slog.Info("tiles built", "tiles", len(result), "roads", b.nextFeature-1, "border_nodes", len(b.borderNodes))
	return result
}

func (p *OsmParser) cellOf(nodeID int64) (h3.Cell, bool) {
	coord, ok := p.nodes[nodeID]
	if !ok {
		return 0, false
	}
	return h3.LatLngToCell(h3.NewLatLng(coord.Lat, coord.Lon), p.resolution), true
}

// assignTiles numbers the cells of all road points in ascending cell order. A cell reached only
// by the last point of a way gets no road, its tile is dropped and leaves a gap in the ids.
func (b *tileBuilder) assignTiles(p *OsmParser) {
	cells := make([]h3.Cell, 0)
	for _, w := range p.ways {
		for _, n := range w.nodes {
			c, ok := p.cellOf(n)
			if !ok {
				continue
			}
			if _, seen := b.cellID[c]; !seen {
				b.cellID[c] = 0
				cells = append(cells, c)
			}
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	for i, c := range cells {
		id := datastructure.TileID(i + 1)
		data := &tile.Data{ID: id, Name: c.String()}
		b.cellID[c] = id
		b.tiles[c] = data
		b.byID[id] = data
	}
}

// addWay cuts w at every cell change. Nodes without coordinates (outside the extract) are dropped.
func (b *tileBuilder) addWay(p *OsmParser, w parsedWay) {
	nodes := make([]int64, 0, len(w.nodes))
	for _, n := range w.nodes {
		if _, ok := p.nodes[n]; ok {
			nodes = append(nodes, n)
		}
	}
	if w.reversed {
		nodes = util.ReverseG(nodes)
	}
	if len(nodes) < 2 {
		return
	}

	start := 0
	current, _ := p.cellOf(nodes[0])
	for i := 1; i < len(nodes); i++ {
		c, _ := p.cellOf(nodes[i])
		if c == current {
			continue
		}
		b.addRoad(p, w, current, nodes[start:i+1])
		b.borderNodes[nodes[i]] = struct{}{}
		start, current = i, c
	}
	if len(nodes)-start > 1 {
		b.addRoad(p, w, current, nodes[start:])
	}
}

func (b *tileBuilder) addRoad(p *OsmParser, w parsedWay, cell h3.Cell, nodes []int64) {
	data := b.tiles[cell]
	points := make([]datastructure.LatLonWithAltitude, len(nodes))
	for i, n := range nodes {
		points[i] = p.nodes[n]
	}
	nodeIDs := make([]int64, len(nodes))
	copy(nodeIDs, nodes)

	road := tile.Road{
		Feature:            b.nextFeature,
		Points:             points,
		NodeIDs:            nodeIDs,
		Class:              w.class,
		OneWay:             w.oneWay,
		MaxSpeed:           w.maxSpeed,
		PassThroughAllowed: w.passThroughAllowed,
		Pedestrian:         w.pedestrian,
		Car:                w.car,
	}
	b.features[w.id] = append(b.features[w.id], featureRef{tile: data.ID, feature: road.Feature, road: len(data.Roads)})
	data.Roads = append(data.Roads, road)
	b.nextFeature++
}

// addBorders marks every road point on a border node, in every tile, so twins are found
// whichever way reaches the node.
func (b *tileBuilder) addBorders() {
	for _, data := range b.byID {
		for _, road := range data.Roads {
			for i, n := range road.NodeIDs {
				if _, ok := b.borderNodes[n]; ok {
					data.Borders = append(data.Borders, tile.BorderPoint{
						Feature:  road.Feature,
						PointIdx: uint32(i),
						Key:      BorderKey(n),
					})
				}
			}
		}
	}
}

func (b *tileBuilder) road(ref featureRef) *tile.Road {
	return &b.byID[ref.tile].Roads[ref.road]
}

func containsNode(road *tile.Road, node int64) bool {
	for _, n := range road.NodeIDs {
		if n == node {
			return true
		}
	}
	return false
}

// featureAt returns the feature of osm way in tileID passing node, any feature of the way in
// tileID when node is zero.
func (b *tileBuilder) featureAt(way int64, tileID datastructure.TileID, node int64) (featureRef, bool) {
	for _, ref := range b.features[way] {
		if ref.tile != tileID {
			continue
		}
		if node == 0 || containsNode(b.road(ref), node) {
			return ref, true
		}
	}
	return featureRef{}, false
}

// addRestrictions keeps the restrictions whose ways all have a feature in one tile.
func (b *tileBuilder) addRestrictions(p *OsmParser) {
	skipped := 0
	for _, r := range p.restrictions {
		if !b.addRestriction(r) {
			skipped++
		}
	}
	if skipped > 0 {
		slog.Info("restrictions across tiles or outside the extract skipped", "skipped", skipped)
	}
}

func (b *tileBuilder) addRestriction(r parsedRestriction) bool {
	for _, from := range b.features[r.from] {
		if r.via != 0 && !containsNode(b.road(from), r.via) {
			continue
		}
		data := b.byID[from.tile]

		if r.kind == restriction.KindNoUTurn || r.kind == restriction.KindOnlyUTurn {
			road := b.road(from)
			first, last := road.NodeIDs[0] == r.via, road.NodeIDs[len(road.NodeIDs)-1] == r.via
			if !first && !last {
				return false
			}
			data.UTurnRestrictions = append(data.UTurnRestrictions, restriction.NewUTurnRestriction(r.kind, from.feature, first))
			return true
		}

		features := []datastructure.FeatureID{from.feature}
		complete := true
		for _, via := range r.viaWays {
			ref, ok := b.featureAt(via, from.tile, 0)
			if !ok {
				complete = false
				break
			}
			features = append(features, ref.feature)
		}
		to, ok := b.featureAt(r.to, from.tile, r.via)
		if !complete || !ok {
			continue
		}
		features = append(features, to.feature)
		data.Restrictions = append(data.Restrictions, restriction.NewRestriction(r.kind, features...))
		return true
	}
	return false
}

// addGuides turns every member way of a guide route into one track, stored in the tile of its
// first point.
func (b *tileBuilder) addGuides(p *OsmParser) {
	var nextID uint32 = 1
	for _, g := range p.guides {
		for _, way := range g.ways {
			nodes, ok := p.guideWays[way]
			if !ok {
				continue
			}
			points := make([]datastructure.LatLonWithAltitude, 0, len(nodes))
			for _, n := range nodes {
				if coord, ok := p.nodes[n]; ok {
					points = append(points, coord)
				}
			}
			if len(points) < 2 {
				continue
			}
			c, _ := p.cellOf(nodes[0])
			data, ok := b.tiles[c]
			if !ok {
				continue
			}
			data.Guides = append(data.Guides, tile.GuideTrack{ID: nextID, Title: g.title, Points: points})
			nextID++
		}
	}
}

// addTransit stores every line in the tile of its first stop. Each stop gets one gate at the
// stop itself.
func (b *tileBuilder) addTransit(p *OsmParser) {
	type tileStops struct {
		ids  map[int64]uint32
		next uint32
	}
	stopsByTile := make(map[datastructure.TileID]*tileStops)

	var nextLine, nextEdge uint32 = 1, 1
	for _, l := range p.lines {
		c, ok := p.cellOf(l.stops[0])
		if !ok {
			continue
		}
		data, ok := b.tiles[c]
		if !ok {
			continue
		}
		ts, ok := stopsByTile[data.ID]
		if !ok {
			ts = &tileStops{ids: make(map[int64]uint32), next: 1}
			stopsByTile[data.ID] = ts
		}
		stopID := func(node int64) uint32 {
			if id, ok := ts.ids[node]; ok {
				return id
			}
			id := ts.next
			ts.next++
			ts.ids[node] = id
			point := p.nodes[node]
			data.Transit.Stops = append(data.Transit.Stops, tile.TransitStop{ID: id, Point: point})
			data.Transit.Gates = append(data.Transit.Gates, tile.TransitGate{
				ID: id, Point: point, StopIDs: []uint32{id}, Entrance: true, Exit: true, Weight: defaultGateWeightSec,
			})
			return id
		}

		stops := make([]int64, 0, len(l.stops))
		for _, s := range l.stops {
			if _, ok := p.nodes[s]; ok {
				stops = append(stops, s)
			}
		}
		if len(stops) < 2 {
			continue
		}

		lineID := nextLine
		nextLine++
		data.Transit.Lines = append(data.Transit.Lines, tile.TransitLine{ID: lineID, Title: l.title, Interval: l.interval})
		for i := 0; i+1 < len(stops); i++ {
			from, to := stops[i], stops[i+1]
			seconds := geo.DistanceMeters(p.nodes[from], p.nodes[to]) / (l.speed / 3.6)
			data.Transit.Edges = append(data.Transit.Edges, tile.TransitEdge{
				ID:     nextEdge,
				LineID: lineID,
				Stop1:  stopID(from),
				Stop2:  stopID(to),
				Weight: seconds,
			})
			nextEdge++
		}
	}
}
