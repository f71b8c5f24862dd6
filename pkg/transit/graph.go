package transit

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/fakegraph"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"golang.org/x/exp/slog"
)

const (
	// InvalidLineID is the line of transfer edges.
	InvalidLineID uint32 = math.MaxUint32
)

type stopKey struct {
	tile datastructure.TileID
	stop uint32
}

type lineKey struct {
	tile datastructure.TileID
	line uint32
}

// Edge is a registered inter-stop edge.
type Edge struct {
	Tile datastructure.TileID
	tile.TransitEdge
}

// Gate is a registered gate -> stop (entrance) or stop -> gate (exit) segment.
type Gate struct {
	Tile datastructure.TileID
	tile.TransitGate
	StopID uint32
}

// Graph grafts the transit network of the loaded tiles onto the road graph. Transit edges and
// gate segments are standalone fakes, gates are joined to the roads with fake endings.
type Graph struct {
	fake  *fakegraph.Graph
	alloc *datastructure.IDAllocator

	segmentToEdge map[datastructure.Segment]Edge
	segmentToGate map[datastructure.Segment]Gate
	// expected waiting time when boarding a line, half of its interval.
	transferPenalties map[lineKey]float64
	filled            map[datastructure.TileID]struct{}
}

func NewGraph(alloc *datastructure.IDAllocator) *Graph {
	return &Graph{
		fake:              fakegraph.NewGraph(),
		alloc:             alloc,
		segmentToEdge:     make(map[datastructure.Segment]Edge),
		segmentToGate:     make(map[datastructure.Segment]Gate),
		transferPenalties: make(map[lineKey]float64),
		filled:            make(map[datastructure.TileID]struct{}),
	}
}

// Fill adds the transit data of one tile. gateEndings holds the projections of every gate onto
// the roads, by gate id. Gates without projections are skipped. Filling a tile twice is a no-op.
func (g *Graph) Fill(tileID datastructure.TileID, data tile.TransitData, gateEndings map[uint32]fakegraph.FakeEnding) {
	if _, ok := g.filled[tileID]; ok {
		return
	}
	g.filled[tileID] = struct{}{}

	stopCoords := make(map[uint32]datastructure.LatLonWithAltitude, len(data.Stops))
	for _, stop := range data.Stops {
		stopCoords[stop.ID] = stop.Point
	}

	for _, line := range data.Lines {
		g.transferPenalties[lineKey{tileID, line.ID}] = line.Interval / 2.0
	}

	// stopToBack: segments ending at a stop, stopToFront: segments starting at a stop.
	stopToBack := make(map[stopKey][]datastructure.Segment)
	stopToFront := make(map[stopKey][]datastructure.Segment)

	for _, gate := range data.Gates {
		ending, ok := gateEndings[gate.ID]
		if !ok || ending.IsEmpty() {
			slog.Warn("transit gate without nearby road skipped", "tile", tileID, "gate", gate.ID)
			continue
		}
		if gate.Entrance {
			g.addGate(tileID, gate, ending, stopCoords, true, stopToBack, stopToFront)
		}
		if gate.Exit {
			g.addGate(tileID, gate, ending, stopCoords, false, stopToBack, stopToFront)
		}
	}

	for _, edge := range data.Edges {
		stop1, ok1 := stopCoords[edge.Stop1]
		stop2, ok2 := stopCoords[edge.Stop2]
		if !ok1 || !ok2 {
			slog.Warn("transit edge with unknown stop skipped", "tile", tileID, "edge", edge.ID,
				"stop1", edge.Stop1, "stop2", edge.Stop2)
			continue
		}
		if !edge.Transfer {
			if _, ok := g.transferPenalties[lineKey{tileID, edge.LineID}]; !ok {
				slog.Warn("transit edge on unknown line skipped", "tile", tileID, "edge", edge.ID, "line", edge.LineID)
				continue
			}
		}

		segment := g.alloc.Next(datastructure.FakeKindTransit)
		vertex := fakegraph.NewFakeVertex(tileID, stop1, stop2, fakegraph.PureFake)
		g.fake.AddStandaloneVertex(segment, vertex)

		registered := edge
		if registered.Transfer {
			registered.LineID = InvalidLineID
		}
		g.segmentToEdge[segment] = Edge{Tile: tileID, TransitEdge: registered}

		stopToBack[stopKey{tileID, edge.Stop2}] = append(stopToBack[stopKey{tileID, edge.Stop2}], segment)
		stopToFront[stopKey{tileID, edge.Stop1}] = append(stopToFront[stopKey{tileID, edge.Stop1}], segment)
	}

	for stop, backs := range stopToBack {
		for _, back := range backs {
			for _, front := range stopToFront[stop] {
				g.fake.AddConnection(back, front)
			}
		}
	}
}

// addGate registers one gate segment per stop of the gate and grafts the gate ending onto it.
func (g *Graph) addGate(tileID datastructure.TileID, gate tile.TransitGate, ending fakegraph.FakeEnding,
	stopCoords map[uint32]datastructure.LatLonWithAltitude, isEnter bool,
	stopToBack, stopToFront map[stopKey][]datastructure.Segment) {
	for _, stopID := range gate.StopIDs {
		stopPoint, ok := stopCoords[stopID]
		if !ok {
			slog.Warn("transit gate to unknown stop skipped", "tile", tileID, "gate", gate.ID, "stop", stopID)
			continue
		}

		segment := g.alloc.Next(datastructure.FakeKindTransit)
		vertex := fakegraph.NewFakeVertex(tileID, ending.OriginJunction, stopPoint, fakegraph.PureFake)
		if !isEnter {
			vertex = fakegraph.NewFakeVertex(tileID, stopPoint, ending.OriginJunction, fakegraph.PureFake)
		}
		g.fake.AddStandaloneVertex(segment, vertex)
		g.segmentToGate[segment] = Gate{Tile: tileID, TransitGate: gate, StopID: stopID}

		key := stopKey{tileID, stopID}
		if isEnter {
			stopToBack[key] = append(stopToBack[key], segment)
		} else {
			stopToFront[key] = append(stopToFront[key], segment)
		}

		// entrance: road -> gate segment, exit: gate segment -> road.
		fakegraph.AddEnding(g.fake, g.alloc, datastructure.FakeKindTransit, segment, ending, !isEnter)
	}
}

func (g *Graph) Fake() *fakegraph.Graph {
	return g.fake
}

func (g *Graph) IsFilled(tileID datastructure.TileID) bool {
	_, ok := g.filled[tileID]
	return ok
}

func (g *Graph) IsEdge(segment datastructure.Segment) bool {
	_, ok := g.segmentToEdge[segment]
	return ok
}

func (g *Graph) IsGate(segment datastructure.Segment) bool {
	_, ok := g.segmentToGate[segment]
	return ok
}

// GetEdge panics if segment is not a registered transit edge.
func (g *Graph) GetEdge(segment datastructure.Segment) Edge {
	e, ok := g.segmentToEdge[segment]
	if !ok {
		panic(fmt.Sprintf("%v is not a transit edge", segment))
	}
	return e
}

// GetGate panics if segment is not a registered gate segment.
func (g *Graph) GetGate(segment datastructure.Segment) Gate {
	gate, ok := g.segmentToGate[segment]
	if !ok {
		panic(fmt.Sprintf("%v is not a transit gate", segment))
	}
	return gate
}

// GetWeight returns the weight of transit edges and gates. Other segments of the transit
// graph (gate endings) have no own weight.
func (g *Graph) GetWeight(segment datastructure.Segment) (datastructure.RouteWeight, bool) {
	if gate, ok := g.segmentToGate[segment]; ok {
		return datastructure.NewTransitRouteWeight(gate.Weight), true
	}
	if edge, ok := g.segmentToEdge[segment]; ok {
		return datastructure.NewTransitRouteWeight(edge.Weight), true
	}
	return datastructure.RouteWeight{}, false
}

// GetTransferPenalty is the expected waiting time when moving from `from` onto `to`.
// It is charged when boarding a line: from a gate, from a transfer or from an edge of
// another line. Moving onto a transfer is free, the wait is charged when leaving it.
func (g *Graph) GetTransferPenalty(from, to datastructure.Segment) datastructure.RouteWeight {
	edgeTo, ok := g.segmentToEdge[to]
	if !ok {
		return datastructure.RouteWeight{}
	}
	if edgeTo.Transfer {
		return datastructure.RouteWeight{}
	}

	if edgeFrom, ok := g.segmentToEdge[from]; ok && edgeFrom.Tile == edgeTo.Tile && edgeFrom.LineID == edgeTo.LineID {
		return datastructure.RouteWeight{}
	}

	penalty, ok := g.transferPenalties[lineKey{edgeTo.Tile, edgeTo.LineID}]
	if !ok {
		panic(fmt.Sprintf("transit edge %v belongs to unknown line %d", to, edgeTo.LineID))
	}
	return datastructure.NewTransitRouteWeight(penalty)
}

func (g *Graph) GetSize() int {
	return g.fake.GetSize()
}
