package ledger

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
)

// SummarizeByTank folds entries into per-tank summaries, sorted by tank name.
// Callers pre-filter by session; grouping here is by tank only.
//
// AbsoluteWeight accumulates the RAW net of each entry (gross minus tare,
// no zero floor), so malformed data can in theory drive it negative. Running
// totals clamp per entry instead; the two deliberately diverge and call sites
// must not unify them.
func SummarizeByTank(entries []models.HarvestEntry) []models.TankSummary {
	byTank := map[string]*models.TankSummary{}

	for _, e := range entries {
		summary, ok := byTank[e.Tank]
		if !ok {
			summary = &models.TankSummary{Tank: e.Tank}
			byTank[e.Tank] = summary
		}

		crates := e.CrateCount
		if crates == 0 {
			crates = 1
		}

		summary.EntryCount++
		if crates == 2 {
			summary.PatluCount++
		} else {
			summary.SinglesCount++
		}
		summary.CrateCount += crates
		summary.TotalWeight += e.Weight
		summary.AbsoluteWeight += e.RawNetWeight()
		if e.Count > 0 {
			summary.ShrimpCount = e.Count
		}
	}

	out := make([]models.TankSummary, 0, len(byTank))
	for _, summary := range byTank {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tank < out[j].Tank })
	return out
}

// RunningTotals computes, for each entry of one tank, the cumulative gross
// and net sums up to and including it, keyed by entry id. Entries are sorted
// by timestamp first, so the input order does not matter.
//
// Each entry's net contribution is clamped at zero BEFORE accumulating, so
// the net series is monotonically non-decreasing even when a single raw net
// would be negative. This is the display-side counterpart of the unclamped
// summary accumulator above.
func RunningTotals(entries []models.HarvestEntry) map[string]models.RunningTotal {
	ordered := make([]models.HarvestEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	totals := make(map[string]models.RunningTotal, len(ordered))
	var gross, net float64
	for _, e := range ordered {
		gross += e.Weight
		net += e.NetWeight()
		totals[e.ID] = models.RunningTotal{Gross: gross, Net: net}
	}
	return totals
}

// Revenue values the summaries against per-tank prices. A missing or
// unparsable price contributes nothing.
func Revenue(summaries []models.TankSummary, prices map[string]string) float64 {
	var total float64
	for _, summary := range summaries {
		price, err := strconv.ParseFloat(strings.TrimSpace(prices[summary.Tank]), 64)
		if err != nil {
			continue
		}
		total += summary.AbsoluteWeight * price
	}
	return total
}
