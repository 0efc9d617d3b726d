package extractor

import "sort"

// MaxPerCategory caps how many points one category contributes.
const MaxPerCategory = 3

// Rank bounds points to limit entries: the best point of every category is
// taken first, remaining slots are filled from the next best of each category
// by importance, and the result is ordered by importance. Ties keep their
// discovery order.
func Rank(points []GoldenPoint, limit int) []GoldenPoint {
	if len(points) == 0 || limit <= 0 {
		return []GoldenPoint{}
	}

	var order []string
	groups := make(map[string][]GoldenPoint)
	for _, p := range points {
		if _, ok := groups[p.Category]; !ok {
			order = append(order, p.Category)
		}
		groups[p.Category] = append(groups[p.Category], p)
	}
	for _, c := range order {
		byImportance(groups[c])
	}

	result := make([]GoldenPoint, 0, limit)
	for _, c := range order {
		result = append(result, groups[c][0])
	}

	var rest []GoldenPoint
	for _, c := range order {
		g := groups[c]
		if len(g) > 1 {
			rest = append(rest, g[1:min(len(g), MaxPerCategory)]...)
		}
	}
	byImportance(rest)
	if slots := limit - len(result); slots > 0 {
		result = append(result, rest[:min(slots, len(rest))]...)
	}

	byImportance(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func byImportance(points []GoldenPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Importance > points[j].Importance
	})
}
