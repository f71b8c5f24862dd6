package tile

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/geo"
)

const (
	// rtree node fan-out, same as rtreego examples.
	rtreeMinChildren = 25
	rtreeMaxChildren = 50

	rectPadding = 1e-7

	metersPerDegree = 111_320.0
)

type segmentItem struct {
	segment datastructure.Segment
	from    datastructure.LatLonWithAltitude
	to      datastructure.LatLonWithAltitude
	rect    rtreego.Rect
}

func (s *segmentItem) Bounds() rtreego.Rect {
	return s.rect
}

// Candidate is a road segment near a query point.
type Candidate struct {
	Segment  datastructure.Segment
	From     datastructure.LatLonWithAltitude
	To       datastructure.LatLonWithAltitude
	Junction datastructure.LatLonWithAltitude
	// Distance meters from the query point to Junction.
	Distance float64
}

// SpatialIndex is an r-tree of the (forward) road segments of one tile, dimensions are (lon, lat).
type SpatialIndex struct {
	tree *rtreego.Rtree
	size int
}

func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren),
	}
}

func segmentRect(from, to datastructure.LatLonWithAltitude) rtreego.Rect {
	minP := rtreego.Point{math.Min(from.Lon, to.Lon) - rectPadding, math.Min(from.Lat, to.Lat) - rectPadding}
	maxP := rtreego.Point{math.Max(from.Lon, to.Lon) + rectPadding, math.Max(from.Lat, to.Lat) + rectPadding}
	rect, err := rtreego.NewRectFromPoints(minP, maxP)
	if err != nil {
		// both points are 2 dimensional.
		panic(err)
	}
	return rect
}

func (si *SpatialIndex) Insert(segment datastructure.Segment, from, to datastructure.LatLonWithAltitude) {
	si.tree.Insert(&segmentItem{
		segment: segment,
		from:    from,
		to:      to,
		rect:    segmentRect(from, to),
	})
	si.size++
}

func (si *SpatialIndex) Size() int {
	return si.size
}

// SearchRadius returns the segments within radius meters of p, nearest first.
func (si *SpatialIndex) SearchRadius(p datastructure.LatLonWithAltitude, radius float64) []Candidate {
	latTol := radius / metersPerDegree
	lonTol := latTol
	if cos := math.Cos(p.Lat * math.Pi / 180.0); cos > 1e-6 {
		lonTol = latTol / cos
	}

	bb, err := rtreego.NewRectFromPoints(
		rtreego.Point{p.Lon - lonTol, p.Lat - latTol},
		rtreego.Point{p.Lon + lonTol, p.Lat + latTol},
	)
	if err != nil {
		panic(err)
	}

	results := si.tree.SearchIntersect(bb)
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		item := res.(*segmentItem)
		junction, dist, _ := geo.ProjectPointToSegment(p, item.from, item.to)
		if dist > radius {
			continue
		}
		candidates = append(candidates, Candidate{
			Segment:  item.segment,
			From:     item.from,
			To:       item.to,
			Junction: junction,
			Distance: dist,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Segment.Less(candidates[j].Segment)
	})
	return candidates
}

// Nearest returns the k segments with the nearest bounding boxes.
func (si *SpatialIndex) Nearest(p datastructure.LatLonWithAltitude, k int) []Candidate {
	results := si.tree.NearestNeighbors(k, rtreego.Point{p.Lon, p.Lat})
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		item := res.(*segmentItem)
		junction, dist, _ := geo.ProjectPointToSegment(p, item.from, item.to)
		candidates = append(candidates, Candidate{
			Segment:  item.segment,
			From:     item.from,
			To:       item.to,
			Junction: junction,
			Distance: dist,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	return candidates
}
