package pricing

import (
	"errors"
	"fmt"
	"satchmo-store/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

var ErrDiscountInvalid = errors.New("discount not valid")

type Line struct {
	ProductID uint
	LinePrice decimal.Decimal
}

type DiscountResult struct {
	// Lines holds the discount for each input line, by index.
	Lines    []decimal.Decimal
	Items    decimal.Decimal
	Shipping decimal.Decimal
}

func (r DiscountResult) Total() decimal.Decimal {
	return r.Items.Add(r.Shipping)
}

// ValidateDiscount returns ErrDiscountInvalid wrapped with the reason.
func ValidateDiscount(d *model.Discount, subtotal decimal.Decimal, lines []Line, now time.Time) error {
	switch {
	case !d.Active:
		return fmt.Errorf("%w: this coupon is disabled", ErrDiscountInvalid)
	case now.Before(d.StartDate):
		return fmt.Errorf("%w: this coupon is not active yet", ErrDiscountInvalid)
	case !d.EndDate.IsZero() && now.After(d.EndDate):
		return fmt.Errorf("%w: this coupon has expired", ErrDiscountInvalid)
	case !d.UsesRemaining():
		return fmt.Errorf("%w: this discount has exceeded the number of allowed uses", ErrDiscountInvalid)
	case subtotal.LessThan(d.MinOrder):
		return fmt.Errorf("%w: this discount only applies to orders of at least %s", ErrDiscountInvalid, d.MinOrder.StringFixed(2))
	}

	for _, line := range lines {
		if d.ValidFor(line.ProductID) {
			return nil
		}
	}
	return fmt.Errorf("%w: this discount cannot be applied to the products in your cart", ErrDiscountInvalid)
}

// CalcDiscount spreads d over the valid lines. A percentage applies to each
// valid line; a fixed amount is split in proportion to line prices and capped
// at their total, with any remainder going to shipping when d.Shipping is APPLY.
func CalcDiscount(d *model.Discount, lines []Line, shipping decimal.Decimal) DiscountResult {
	result := DiscountResult{
		Lines:    make([]decimal.Decimal, len(lines)),
		Items:    decimal.Zero,
		Shipping: decimal.Zero,
	}
	for i := range result.Lines {
		result.Lines[i] = decimal.Zero
	}

	validTotal := decimal.Zero
	var valid []int
	for i, line := range lines {
		if d.ValidFor(line.ProductID) {
			valid = append(valid, i)
			validTotal = validTotal.Add(line.LinePrice)
		}
	}

	switch {
	case d.Percentage.IsPositive():
		for _, i := range valid {
			result.Lines[i] = lines[i].LinePrice.Mul(d.Percentage).Div(hundred).Round(2)
			result.Items = result.Items.Add(result.Lines[i])
		}
		if d.Shipping == model.DiscountShippingApply {
			result.Shipping = shipping.Mul(d.Percentage).Div(hundred).Round(2)
		}

	case d.Amount.IsPositive():
		applied := decimal.Min(d.Amount, validTotal)
		remaining := applied
		if !validTotal.IsPositive() {
			valid = nil
		}
		for n, i := range valid {
			if n == len(valid)-1 {
				result.Lines[i] = remaining
			} else {
				share := applied.Mul(lines[i].LinePrice).Div(validTotal).Round(2)
				result.Lines[i] = share
				remaining = remaining.Sub(share)
			}
			result.Items = result.Items.Add(result.Lines[i])
		}
		if d.Shipping == model.DiscountShippingApply {
			leftover := d.Amount.Sub(applied)
			result.Shipping = decimal.Min(leftover, shipping)
		}
	}

	if d.Shipping == model.DiscountShippingFree {
		result.Shipping = shipping
	}
	if result.Shipping.GreaterThan(shipping) {
		result.Shipping = shipping
	}
	return result
}
