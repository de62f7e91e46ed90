package stats

import (
	"sort"
	"unicode"

	"github.com/verte-zerg/newstype/internal/model"
)

// SelectWeakChars picks up to top characters whose accuracy is below
// threshold, weakest first. Characters seen fewer than minSeen times are
// skipped. Letters are folded to lower case so they match keyboard keys.
func SelectWeakChars(aggs []model.CharAggregate, top, minSeen int, threshold float64) map[rune]struct{} {
	weakSet := map[rune]struct{}{}
	candidates := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect < minSeen || accuracy(agg) >= threshold {
			continue
		}
		candidates = append(candidates, agg)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Char < candidates[j].Char
		}
		return ai < aj
	})
	for _, agg := range candidates {
		if top > 0 && len(weakSet) >= top {
			break
		}
		runes := []rune(agg.Char)
		if len(runes) > 0 {
			weakSet[unicode.ToLower(runes[0])] = struct{}{}
		}
	}
	return weakSet
}

func accuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
