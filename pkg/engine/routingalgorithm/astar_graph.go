package routingalgorithm

import (
	"context"
	"time"
)

// Weight is the path cost type of a search. It must be totally ordered by Less and the zero value
// must be the empty path.
type Weight[W any] interface {
	Add(rhs W) W
	Sub(rhs W) W
	Less(rhs W) bool
	Scale(factor float64) W
	IsBadReducedWeight(reference W) bool
	ClampNonNegative() W
}

type Edge[V any, W any] struct {
	Target V
	Weight W
}

func NewEdge[V any, W any](target V, weight W) Edge[V, W] {
	return Edge[V, W]{Target: target, Weight: weight}
}

// AStarGraph is a graph searched by FindPathAStar and FindPathBidirectional.
type AStarGraph[V comparable, W Weight[W]] interface {
	// HeuristicCostEstimate is a lower bound of the path weight from `from` to `to`.
	HeuristicCostEstimate(from, to V) W

	// GetOutgoingEdgesList appends the edges leaving v to edges, GetIngoingEdgesList the edges
	// entering v (Target is the other end of the edge). edges is reset by the callee.
	GetOutgoingEdgesList(v V, edges *[]Edge[V, W])
	GetIngoingEdgesList(v V, edges *[]Edge[V, W])

	// SetAStarParents gives the graph the parents of the forward (or backward) wave, edges
	// may depend on the way a vertex was reached (turn restrictions). The map is updated
	// by the search in place.
	SetAStarParents(forward bool, parents map[V]V)
	DropAStarParents()

	// AreWavesConnectible reports whether the forward path to common and the backward path from
	// common join into one valid path.
	AreWavesConnectible(forwardParents map[V]V, common V, backwardParents map[V]V) bool
}

type Result uint8

const (
	ResultOK Result = iota
	ResultNoPath
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNoPath:
		return "no_path"
	case ResultCancelled:
		return "cancelled"
	}
	return "unknown"
}

const (
	DefaultCheckInterval = 100
)

// Params of one search. Ctx and Deadline are polled before the first vertex is settled and
// then every CheckInterval settled vertices.
type Params struct {
	Ctx           context.Context
	Deadline      time.Time
	CheckInterval int
}

func NewParams(ctx context.Context, timeout time.Duration) Params {
	p := Params{Ctx: ctx, CheckInterval: DefaultCheckInterval}
	if timeout > 0 {
		p.Deadline = time.Now().Add(timeout)
	}
	return p
}

type RoutingResult[V comparable, W any] struct {
	Path     []V
	Distance W

	SettledVertices int
	ExpandedEdges   int
}

type cancellable struct {
	ctx      context.Context
	deadline time.Time
	interval int
	count    int
}

func newCancellable(p Params) *cancellable {
	ctx := p.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	interval := p.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &cancellable{
		ctx:      ctx,
		deadline: p.Deadline,
		interval: interval,
	}
}

func (c *cancellable) isCancelledNow() bool {
	if c.ctx.Err() != nil {
		return true
	}
	return !c.deadline.IsZero() && time.Now().After(c.deadline)
}

// isCancelled is called once per settled vertex.
func (c *cancellable) isCancelled() bool {
	c.count++
	if c.count%c.interval != 0 {
		return false
	}
	return c.isCancelledNow()
}
