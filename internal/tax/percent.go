package tax

import (
	"context"
	"satchmo-store/internal/model"

	"github.com/shopspring/decimal"
)

type percentTax struct {
	percent     decimal.Decimal
	taxShipping bool
}

func (p *percentTax) Key() string { return ModulePercent }

func (p *percentTax) ByPrice(_ context.Context, _ string, price decimal.Decimal) (decimal.Decimal, error) {
	return percentOf(price, p.percent), nil
}

func (p *percentTax) Process(_ context.Context, order *model.Order) (decimal.Decimal, []model.OrderTaxDetail, error) {
	total := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		lineTax := decimal.Zero
		if item.Product.Taxable {
			lineTax = percentOf(taxableAmount(item), p.percent)
		}
		setItemTax(item, lineTax)
		total = total.Add(lineTax)
	}

	if p.taxShipping {
		total = total.Add(percentOf(order.Shipping.Sub(order.ShippingDiscount), p.percent))
	}

	if total.IsZero() {
		return total, nil, nil
	}
	return total, []model.OrderTaxDetail{{
		Method:      ModulePercent,
		Description: p.percent.String() + "%",
		Tax:         total,
	}}, nil
}
