package tax

import (
	"context"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"strings"

	"github.com/shopspring/decimal"
)

type areaTax struct {
	rates        repository.TaxRepository
	useBilling   bool
	storeCountry string
}

func (a *areaTax) Key() string { return ModuleArea }

// rate picks the admin-area rate over the country-wide one.
func (a *areaTax) rate(ctx context.Context, taxClass, country, area string) (decimal.Decimal, error) {
	rates, err := a.rates.Rates(ctx, taxClass, country)
	if err != nil {
		return decimal.Zero, err
	}

	countryRate := decimal.Zero
	for _, r := range rates {
		if r.AdminArea == "" {
			countryRate = r.Percentage
			continue
		}
		if area != "" && strings.EqualFold(r.AdminArea, area) {
			return r.Percentage, nil
		}
	}
	return countryRate, nil
}

func (a *areaTax) ByPrice(ctx context.Context, taxClass string, price decimal.Decimal) (decimal.Decimal, error) {
	pct, err := a.rate(ctx, taxClass, a.storeCountry, "")
	if err != nil {
		return decimal.Zero, err
	}
	return percentOf(price, pct), nil
}

func (a *areaTax) address(order *model.Order) model.Address {
	addr := order.ShipAddress
	if a.useBilling || addr.Country == "" {
		addr = order.BillAddress
	}
	if addr.Country == "" {
		addr.Country = a.storeCountry
	}
	return addr
}

func (a *areaTax) Process(ctx context.Context, order *model.Order) (decimal.Decimal, []model.OrderTaxDetail, error) {
	addr := a.address(order)

	byRate := map[string]decimal.Decimal{}
	var rateOrder []string
	add := func(pct, tax decimal.Decimal) {
		if tax.IsZero() {
			return
		}
		key := pct.String()
		if _, ok := byRate[key]; !ok {
			rateOrder = append(rateOrder, key)
			byRate[key] = decimal.Zero
		}
		byRate[key] = byRate[key].Add(tax)
	}

	total := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		lineTax := decimal.Zero
		if item.Product.Taxable {
			pct, err := a.rate(ctx, classOf(&item.Product), addr.Country, addr.State)
			if err != nil {
				return decimal.Zero, nil, err
			}
			lineTax = percentOf(taxableAmount(item), pct)
			add(pct, lineTax)
		}
		setItemTax(item, lineTax)
		total = total.Add(lineTax)
	}

	shipping := order.Shipping.Sub(order.ShippingDiscount)
	if shipping.IsPositive() {
		pct, err := a.rate(ctx, model.TaxClassShipping, addr.Country, addr.State)
		if err != nil {
			return decimal.Zero, nil, err
		}
		shipTax := percentOf(shipping, pct)
		add(pct, shipTax)
		total = total.Add(shipTax)
	}

	details := make([]model.OrderTaxDetail, 0, len(rateOrder))
	for _, key := range rateOrder {
		details = append(details, model.OrderTaxDetail{
			Method:      ModuleArea,
			Description: key + "%",
			Tax:         byRate[key],
		})
	}
	return total, details, nil
}
