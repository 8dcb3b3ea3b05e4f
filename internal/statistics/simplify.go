package statistics

import (
	"fmt"

	"savdash/domain/stats"
)

// DefaultTopN is the number of valid categories kept by SimplifyForDisplay
const DefaultTopN = 10

// SimplifyForDisplay collapses long frequency tables. Variables without many
// categories are returned unchanged. Otherwise the topN most frequent valid
// categories are kept, the remainder is folded into one "Other" row and the
// missing row, if any, stays last. The input is not modified.
func SimplifyForDisplay(s *stats.VariableStatistics, topN int) []stats.FrequencyItem {
	if s == nil {
		return nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	out := make([]stats.FrequencyItem, 0, topN+2)
	if !s.HasManyCategories {
		return append(out, s.Frequencies...)
	}

	valid := s.ValidEntries()
	if len(valid) <= topN {
		return append(out, s.Frequencies...)
	}

	out = append(out, valid[:topN]...)

	rest := valid[topN:]
	other := stats.FrequencyItem{
		Label:   fmt.Sprintf("Other (%d categories)", len(rest)),
		IsOther: true,
	}
	var pctTotal, pctValid float64
	for _, item := range rest {
		other.Count += item.Count
		pctTotal += item.PercentOfTotal
		pctValid += item.PercentOfValid
	}
	// Stored shares are apportioned hundredths, so their sum keeps the table at 100.
	other.PercentOfTotal = round2(pctTotal)
	other.PercentOfValid = round2(pctValid)
	out = append(out, other)

	if missing, ok := s.MissingEntry(); ok {
		out = append(out, missing)
	}
	return out
}
