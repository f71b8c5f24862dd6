package datastructure

// FakeKind tells which overlay a fake segment belongs to. Fake segments of all overlays
// live in one id space: the kind is stored in Segment.Feature and a dense per-kind counter
// in Segment.SegmentIdx.
type FakeKind uint32

const (
	FakeKindNone FakeKind = iota
	FakeKindQuery
	FakeKindTransit
	FakeKindGuides

	numFakeKinds
)

func (k FakeKind) String() string {
	switch k {
	case FakeKindQuery:
		return "query"
	case FakeKindTransit:
		return "transit"
	case FakeKindGuides:
		return "guides"
	default:
		return "none"
	}
}

// IDAllocator hands out fake segment ids for one routing query. It must be reset
// (or recreated) when a new query starts.
type IDAllocator struct {
	next [numFakeKinds]uint32
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a new forward fake segment of the given kind.
func (a *IDAllocator) Next(kind FakeKind) Segment {
	if kind == FakeKindNone || kind >= numFakeKinds {
		panic("fake id requested for unknown kind " + kind.String())
	}
	id := a.next[kind]
	a.next[kind]++
	return NewSegment(FakeTileID, FeatureID(kind), id, true)
}

// Count returns how many ids of kind were handed out.
func (a *IDAllocator) Count(kind FakeKind) uint32 {
	return a.next[kind]
}

func (a *IDAllocator) Reset() {
	a.next = [numFakeKinds]uint32{}
}
