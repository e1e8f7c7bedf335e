package shipping

import (
	"context"
	"satchmo-store/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// rateMethod serves both flat and per-item shipping.
type rateMethod struct {
	key     string
	rate    decimal.Decimal
	perItem bool
	service string
	days    string
}

func (m *rateMethod) Key() string { return m.key }

func (m *rateMethod) Description() string {
	if m.perItem {
		return "Per piece shipping"
	}
	return "Flat rate shipping"
}

func (m *rateMethod) Method() string           { return m.service }
func (m *rateMethod) ExpectedDelivery() string { return m.days }

func (m *rateMethod) Valid(_ context.Context, order *model.Order) bool {
	return order.IsShippable()
}

func (m *rateMethod) Cost(_ context.Context, order *model.Order) (decimal.Decimal, error) {
	if !m.perItem {
		return m.rate, nil
	}
	return m.rate.Mul(decimal.NewFromInt(int64(shippableQuantity(order)))), nil
}

type tieredMethod struct {
	carrier model.Carrier
	now     func() time.Time
}

func (m *tieredMethod) Key() string              { return ModuleTiered + ":" + m.carrier.Key }
func (m *tieredMethod) Description() string      { return m.carrier.Name }
func (m *tieredMethod) Method() string           { return m.carrier.Method }
func (m *tieredMethod) ExpectedDelivery() string { return m.carrier.Delivery }

func (m *tieredMethod) basis(order *model.Order) decimal.Decimal {
	if m.carrier.Basis == model.BasisWeight {
		return shippableWeight(order)
	}
	return shippableTotal(order)
}

// tier picks the highest unexpired tier whose minimum the basis reaches.
func (m *tieredMethod) tier(order *model.Order) (model.ShippingTier, bool) {
	basis := m.basis(order)
	now := m.now()

	var best model.ShippingTier
	found := false
	for _, t := range m.carrier.Tiers {
		if t.Expires != nil && !t.Expires.After(now) {
			continue
		}
		if t.Min.GreaterThan(basis) {
			continue
		}
		if !found || t.Min.GreaterThan(best.Min) {
			best, found = t, true
		}
	}
	return best, found
}

func (m *tieredMethod) Valid(_ context.Context, order *model.Order) bool {
	if !order.IsShippable() {
		return false
	}
	_, ok := m.tier(order)
	return ok
}

func (m *tieredMethod) Cost(_ context.Context, order *model.Order) (decimal.Decimal, error) {
	t, ok := m.tier(order)
	if !ok {
		return decimal.Zero, ErrNoTier
	}
	return t.Price, nil
}

type freeMethod struct {
	minimum decimal.Decimal
}

func (m *freeMethod) Key() string              { return ModuleFree }
func (m *freeMethod) Description() string      { return "Free shipping" }
func (m *freeMethod) Method() string           { return "" }
func (m *freeMethod) ExpectedDelivery() string { return "" }

func (m *freeMethod) Valid(_ context.Context, order *model.Order) bool {
	return order.IsShippable() && !order.Subtotal.LessThan(m.minimum)
}

func (m *freeMethod) Cost(context.Context, *model.Order) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
