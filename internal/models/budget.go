// internal/models/budget.go
package models

// BudgetTier is a coarse three-level classification of venue cost.
type BudgetTier int

const (
	BudgetLow    BudgetTier = 1
	BudgetMedium BudgetTier = 2
	BudgetHigh   BudgetTier = 3
)

const (
	budgetMediumFloor   int64 = 200_000
	budgetMediumCeiling int64 = 1_000_000
)

// Valid reports whether the tier is one of the three known levels.
func (t BudgetTier) Valid() bool {
	return t >= BudgetLow && t <= BudgetHigh
}

// PriceRange returns the inclusive bounds of the tier. A nil bound means
// unbounded on that side. ok is false for unknown tiers.
func (t BudgetTier) PriceRange() (min, max *int64, ok bool) {
	lowMax := budgetMediumFloor - 1
	medMin, medMax := budgetMediumFloor, budgetMediumCeiling
	highMin := budgetMediumCeiling + 1

	switch t {
	case BudgetLow:
		return nil, &lowMax, true
	case BudgetMedium:
		return &medMin, &medMax, true
	case BudgetHigh:
		return &highMin, nil, true
	default:
		return nil, nil, false
	}
}

// TierOf classifies a price: below 200,000 is low, 200,000 to 1,000,000
// inclusive is medium, above is high.
func TierOf(price int64) BudgetTier {
	switch {
	case price < budgetMediumFloor:
		return BudgetLow
	case price <= budgetMediumCeiling:
		return BudgetMedium
	default:
		return BudgetHigh
	}
}
