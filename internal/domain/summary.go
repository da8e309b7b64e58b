package domain

import "math"

// Summary aggregates a store collection. Good is always
// Total - Excellent - NeedsAttention so the three counts add up.
type Summary struct {
	Total          int `json:"total"`
	Excellent      int `json:"excellent"`
	Good           int `json:"good"`
	NeedsAttention int `json:"needs_attention"`
	InvalidIDs     int `json:"invalid_ids"`

	AverageNPS                      float64 `json:"average_nps"`
	MaxNPS                          float64 `json:"max_nps"`
	MinNPS                          float64 `json:"min_nps"`
	AverageDamageRate               float64 `json:"average_damage_rate"`
	AverageOutOfStockRate           float64 `json:"average_out_of_stock_rate"`
	AverageComplaintResolutionHours float64 `json:"average_complaint_resolution_hours"`
}

// Summarize computes tier counts and metric averages. An empty collection
// yields the zero Summary.
func Summarize(records []StoreRecord) Summary {
	s := Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}

	var npsSum, damageSum, stockSum, complaintSum float64
	s.MaxNPS = math.Inf(-1)
	s.MinNPS = math.Inf(1)

	for _, r := range records {
		switch r.Tier() {
		case TierExcellent:
			s.Excellent++
		case TierNeedsAttention:
			s.NeedsAttention++
		}
		if !r.IsValidID() {
			s.InvalidIDs++
		}
		npsSum += r.NPS
		damageSum += r.DamageRate
		stockSum += r.OutOfStockRate
		complaintSum += r.ComplaintResolutionHours
		s.MaxNPS = math.Max(s.MaxNPS, r.NPS)
		s.MinNPS = math.Min(s.MinNPS, r.NPS)
	}

	s.Good = s.Total - s.Excellent - s.NeedsAttention

	n := float64(len(records))
	s.AverageNPS = npsSum / n
	s.AverageDamageRate = damageSum / n
	s.AverageOutOfStockRate = stockSum / n
	s.AverageComplaintResolutionHours = complaintSum / n
	return s
}

// Count returns the number of stores in tier t, or Total for AllTiers.
func (s Summary) Count(t Tier) int {
	switch t {
	case TierExcellent:
		return s.Excellent
	case TierGood:
		return s.Good
	case TierNeedsAttention:
		return s.NeedsAttention
	default:
		return s.Total
	}
}
