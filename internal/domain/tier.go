package domain

import "fmt"

// Tier is the performance classification of a store.
type Tier string

const (
	TierExcellent      Tier = "excellent"
	TierGood           Tier = "good"
	TierNeedsAttention Tier = "needs_attention"

	// AllTiers disables tier filtering in Query.
	AllTiers Tier = ""
)

// Tiers lists the classification outcomes from best to worst.
var Tiers = []Tier{TierExcellent, TierGood, TierNeedsAttention}

// Classification thresholds.
const (
	excellentMinNPS        = 50.0
	excellentMaxDamage     = 0.5
	excellentMaxOutOfStock = 3.0

	attentionMinNPS        = 30.0
	attentionMaxDamage     = 1.0
	attentionMaxOutOfStock = 4.0
)

// Classify maps store metrics to a tier. Rules are evaluated in order and the
// first match wins; anything matching neither rule is Good.
func Classify(nps, damageRate, outOfStockRate float64) Tier {
	switch {
	case nps >= excellentMinNPS && damageRate < excellentMaxDamage && outOfStockRate < excellentMaxOutOfStock:
		return TierExcellent
	case nps < attentionMinNPS || damageRate > attentionMaxDamage || outOfStockRate > attentionMaxOutOfStock:
		return TierNeedsAttention
	default:
		return TierGood
	}
}

// ParseTier accepts a tier name as used in query strings and CLI flags.
// "all" and "" map to AllTiers.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "", "all":
		return AllTiers, nil
	case string(TierExcellent), string(TierGood), string(TierNeedsAttention):
		return Tier(s), nil
	default:
		return AllTiers, fmt.Errorf("unknown tier %q", s)
	}
}

// Label returns the Spanish display name used on store cards.
func (t Tier) Label() string {
	switch t {
	case TierExcellent:
		return "Excelente"
	case TierGood:
		return "Bueno"
	case TierNeedsAttention:
		return "Necesita atención"
	default:
		return "Todas"
	}
}

// PinColor returns the map pin color for the tier.
func (t Tier) PinColor() string {
	switch t {
	case TierExcellent:
		return "green"
	case TierGood:
		return "orange"
	case TierNeedsAttention:
		return "red"
	default:
		return "gray"
	}
}
