package pipeline

import (
	"sort"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// DefaultTargetCount applies to unknown duration buckets.
const DefaultTargetCount = 20

var targetCounts = map[models.DurationBucket]int{
	models.Duration1To3:   8,
	models.Duration3To5:   12,
	models.Duration5To10:  20,
	models.Duration10To15: 30,
	models.Duration15To20: 40,
	models.Duration20To30: 50,
}

// TargetCount returns how many items a briefing of duration d carries.
func TargetCount(d models.DurationBucket) int {
	if n, ok := targetCounts[d]; ok {
		return n
	}
	return DefaultTargetCount
}

// Select orders items by priority tier ascending then substance score
// descending and keeps at most target of them. Equal items keep their input
// order. The input slice is not modified.
func Select(items []models.ContentItem, target int) []models.ContentItem {
	sorted := make([]models.ContentItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PriorityTier != sorted[j].PriorityTier {
			return sorted[i].PriorityTier < sorted[j].PriorityTier
		}
		return sorted[i].SubstanceScore > sorted[j].SubstanceScore
	})
	if target >= 0 && len(sorted) > target {
		sorted = sorted[:target]
	}
	return sorted
}
