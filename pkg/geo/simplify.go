package geo

import (
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
)

// DefaultSimplifyTolerance meters.
const DefaultSimplifyTolerance = 7.0

// SimplifyPolyline drops the points closer than tolerance meters to the line kept around them
// (Douglas-Peucker). The first and last points are always kept.
func SimplifyPolyline(points []datastructure.LatLonWithAltitude, tolerance float64) []datastructure.LatLonWithAltitude {
	size := len(points)
	if size < 3 {
		return points
	}

	kept := make([]bool, size)
	kept[0], kept[size-1] = true, true

	stack := [][2]int{{0, size - 1}}
	for len(stack) > 0 {
		span := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		left, right := span[0], span[1]

		maxDist, farthest := 0.0, -1
		for i := left + 1; i < right; i++ {
			dist := PointLinePerpendicularDistance(points[left].GetLatLon(), points[right].GetLatLon(), points[i].GetLatLon())
			if dist > tolerance && dist > maxDist {
				maxDist, farthest = dist, i
			}
		}
		if farthest < 0 {
			continue
		}
		kept[farthest] = true
		stack = append(stack, [2]int{left, farthest}, [2]int{farthest, right})
	}

	simplified := make([]datastructure.LatLonWithAltitude, 0, size)
	for i, keep := range kept {
		if keep {
			simplified = append(simplified, points[i])
		}
	}
	return simplified
}
