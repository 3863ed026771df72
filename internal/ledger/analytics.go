package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/erazemk/evidenca/internal/model"
)

// Analytics computes all derived views in one pass. topN truncates the
// frequency list; a zero window means discrepancies are counted over all
// time. Everything is recomputed from the event history on each call.
func (s *Service) Analytics(now time.Time, topN int, window time.Duration) model.Analytics {
	var since time.Time
	if window > 0 {
		since = now.Add(-window)
	}
	return model.Analytics{
		Frequency:     s.Frequency(topN),
		HoldDurations: s.HoldDurations(),
		Discrepancies: s.DiscrepancyCounts(since),
		Overdue:       s.Overdue(now),
	}
}

// Frequency counts issuance events per item, most issued first, ties broken
// by item id. topN <= 0 returns the full list.
func (s *Service) Frequency(topN int) []model.ItemFrequency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, e := range s.events {
		if e.Kind == KindIssue {
			counts[e.Issue.ItemID]++
		}
	}

	out := make([]model.ItemFrequency, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.ItemFrequency{
			ItemID:    id,
			ItemName:  s.itemName(id),
			Issuances: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Issuances != out[j].Issuances {
			return out[i].Issuances > out[j].Issuances
		}
		return out[i].ItemID < out[j].ItemID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// HoldDurations averages, per item, how long returned temporary issuances
// were held. Each sample is floored to whole days; the mean over samples is
// rounded to the nearest day. Items without a single returned temporary
// issuance are omitted entirely.
func (s *Service) HoldDurations() []model.HoldDuration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		days    int
		samples int
	}
	sums := make(map[int64]*acc)
	for _, id := range s.proj.issuanceOrder {
		rec := s.proj.issuances[id]
		if rec.Status != model.IssuanceStatusTemporary || rec.ReturnedDate == nil {
			continue
		}
		days := int(math.Floor(rec.ReturnedDate.Sub(rec.IssueDate).Hours() / 24))
		a, ok := sums[rec.ItemID]
		if !ok {
			a = &acc{}
			sums[rec.ItemID] = a
		}
		a.days += days
		a.samples++
	}

	out := make([]model.HoldDuration, 0, len(sums))
	for id, a := range sums {
		out = append(out, model.HoldDuration{
			ItemID:   id,
			ItemName: s.itemName(id),
			AvgDays:  int(math.Round(float64(a.days) / float64(a.samples))),
			Samples:  a.samples,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDays != out[j].AvgDays {
			return out[i].AvgDays > out[j].AvgDays
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// DiscrepancyCounts counts forced adjustment events per item. The signal is
// structural (event kind), never text matching on audit details. A zero
// since counts over all time. Items without adjustments are omitted.
func (s *Service) DiscrepancyCounts(since time.Time) []model.DiscrepancyCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, e := range s.events {
		if e.Kind != KindAdjust {
			continue
		}
		if !since.IsZero() && e.At.Before(since) {
			continue
		}
		counts[e.Adjust.ItemID]++
	}

	out := make([]model.DiscrepancyCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.DiscrepancyCount{
			ItemID:      id,
			ItemName:    s.itemName(id),
			Adjustments: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Adjustments != out[j].Adjustments {
			return out[i].Adjustments > out[j].Adjustments
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Overdue lists open temporary issuances past their expected return date,
// most overdue first. It is derived on demand and never stored.
func (s *Service) Overdue(now time.Time) []model.OverdueIssuance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.OverdueIssuance
	for _, id := range s.proj.issuanceOrder {
		rec := s.proj.issuances[id]
		days, overdue := rec.OverdueDays(now)
		if !overdue {
			continue
		}
		out = append(out, model.OverdueIssuance{Issuance: *rec, DaysOverdue: days})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysOverdue != out[j].DaysOverdue {
			return out[i].DaysOverdue > out[j].DaysOverdue
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// itemName resolves an item name for analytics rows, including tombstoned
// items so historical rows keep their labels. Callers hold s.mu.
func (s *Service) itemName(id int64) string {
	if item, ok := s.proj.items[id]; ok {
		return item.Name
	}
	return ""
}
