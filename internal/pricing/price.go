// Package pricing resolves unit prices from quantity breaks and pricing tiers,
// and spreads discounts over order lines.
package pricing

import (
	"errors"
	"satchmo-store/internal/model"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoPrice = errors.New("no price for quantity")

var hundred = decimal.NewFromInt(100)

// Break is one quantity break: Price applies from Quantity units upward.
type Break struct {
	Quantity int
	Price    decimal.Decimal
	Expires  *time.Time
}

func (b Break) expired(now time.Time) bool {
	return b.Expires != nil && b.Expires.Before(now)
}

func FromPrices(prices []model.Price) []Break {
	out := make([]Break, len(prices))
	for i, p := range prices {
		out[i] = Break{Quantity: p.Quantity, Price: p.Price, Expires: p.Expires}
	}
	return out
}

func FromTieredPrices(prices []model.TieredPrice) []Break {
	out := make([]Break, len(prices))
	for i, p := range prices {
		out[i] = Break{Quantity: p.Quantity, Price: p.Price, Expires: p.Expires}
	}
	return out
}

// BestBreak finds the unexpired break with the highest Quantity not above qty.
// Breaks sharing that quantity resolve to the lowest price.
func BestBreak(breaks []Break, qty int, now time.Time) (decimal.Decimal, bool) {
	sorted := make([]Break, 0, len(breaks))
	for _, b := range breaks {
		if b.Quantity <= qty && !b.expired(now) {
			sorted = append(sorted, b)
		}
	}
	if len(sorted) == 0 {
		return decimal.Zero, false
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Quantity != sorted[j].Quantity {
			return sorted[i].Quantity > sorted[j].Quantity
		}
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return sorted[0].Price, true
}

// ApplyPercent takes percent off price, rounded to cents.
func ApplyPercent(price, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return price
	}
	factor := hundred.Sub(percent).Div(hundred)
	if factor.IsNegative() {
		return decimal.Zero
	}
	return price.Mul(factor).Round(2)
}

// Tier is a pricing tier with its price list for one product.
type Tier struct {
	Tier   model.PricingTier
	Prices []Break
}

// TierPrice is the tier's own break price, or the base price less the tier
// percentage when the tier has no break for qty. It never exceeds base.
func TierPrice(base decimal.Decimal, tier Tier, qty int, now time.Time) decimal.Decimal {
	price, ok := BestBreak(tier.Prices, qty, now)
	if !ok {
		price = ApplyPercent(base, tier.Tier.DiscountPercent)
	}
	return decimal.Min(price, base)
}

// Resolve returns the unit price for qty: the best base break, lowered by
// whichever tier gives the lowest price.
func Resolve(base []Break, tiers []Tier, qty int, now time.Time) (decimal.Decimal, error) {
	price, ok := BestBreak(base, qty, now)
	if !ok {
		return decimal.Zero, ErrNoPrice
	}

	best := price
	for _, tier := range tiers {
		best = decimal.Min(best, TierPrice(price, tier, qty, now))
	}
	return best, nil
}
