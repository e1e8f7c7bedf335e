// Package tax computes order tax with the processor selected in TAX.MODULE.
package tax

import (
	"context"
	"fmt"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	Group = "TAX"

	ModuleNone    = "no"
	ModulePercent = "percent"
	ModuleArea    = "area"

	DefaultClass = "Default"
)

var hundred = decimal.NewFromInt(100)

type Processor interface {
	Key() string
	// ByPrice is the tax on price for a product of taxClass.
	ByPrice(ctx context.Context, taxClass string, price decimal.Decimal) (decimal.Decimal, error)
	// Process sets UnitTax and LineTax on every item and returns the order tax with its breakdown.
	Process(ctx context.Context, order *model.Order) (decimal.Decimal, []model.OrderTaxDetail, error)
}

func RegisterSettings(r *livesettings.Registry) error {
	r.RegisterGroup(livesettings.Group{Key: Group, Name: "Tax Settings", Ordering: 20})

	return r.Register(
		livesettings.Value{
			Group:       Group,
			Key:         "MODULE",
			Kind:        livesettings.KindModule,
			Description: "Active tax module",
			Default:     ModuleNone,
			Choices: []livesettings.Choice{
				{Value: ModuleNone, Label: "No tax"},
				{Value: ModulePercent, Label: "Percent tax"},
				{Value: ModuleArea, Label: "By country/area"},
			},
		},
		livesettings.Value{
			Group:       Group,
			Key:         "PERCENT",
			Kind:        livesettings.KindDecimal,
			Description: "Percent tax",
			Default:     "0",
		},
		livesettings.Value{
			Group:       Group,
			Key:         "TAX_SHIPPING",
			Kind:        livesettings.KindBoolean,
			Description: "Tax shipping charges",
			Default:     false,
		},
		livesettings.Value{
			Group:       Group,
			Key:         "TAX_AREA_ADDRESS",
			Kind:        livesettings.KindString,
			Description: "Address used to find the area tax rate",
			Default:     "ship",
			Choices: []livesettings.Choice{
				{Value: "ship", Label: "Shipping address"},
				{Value: "bill", Label: "Billing address"},
			},
		},
	)
}

type Service struct {
	settings *livesettings.Registry
	rates    repository.TaxRepository
}

func NewService(settings *livesettings.Registry, rates repository.TaxRepository) *Service {
	return &Service{settings: settings, rates: rates}
}

// Processor builds the processor currently selected in TAX.MODULE.
func (s *Service) Processor(ctx context.Context) (Processor, error) {
	module, err := s.settings.String(ctx, Group, "MODULE")
	if err != nil {
		return nil, err
	}
	return s.ProcessorFor(ctx, module)
}

func (s *Service) ProcessorFor(ctx context.Context, module string) (Processor, error) {
	switch module {
	case ModuleNone, "":
		return noTax{}, nil
	case ModulePercent:
		pct, err := s.settings.Decimal(ctx, Group, "PERCENT")
		if err != nil {
			return nil, err
		}
		shipping, err := s.settings.Bool(ctx, Group, "TAX_SHIPPING")
		if err != nil {
			return nil, err
		}
		return &percentTax{percent: pct, taxShipping: shipping}, nil
	case ModuleArea:
		which, err := s.settings.String(ctx, Group, "TAX_AREA_ADDRESS")
		if err != nil {
			return nil, err
		}
		country, err := s.settings.String(ctx, livesettings.GroupShop, "COUNTRY")
		if err != nil {
			return nil, err
		}
		return &areaTax{rates: s.rates, useBilling: which == "bill", storeCountry: country}, nil
	default:
		return nil, fmt.Errorf("unknown tax module %q", module)
	}
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

func taxableAmount(item *model.OrderItem) decimal.Decimal {
	return item.LinePrice.Sub(item.Discount)
}

func setItemTax(item *model.OrderItem, lineTax decimal.Decimal) {
	item.LineTax = lineTax
	item.UnitTax = decimal.Zero
	if item.Quantity > 0 {
		item.UnitTax = lineTax.Div(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	}
}

func classOf(p *model.Product) string {
	if p.TaxClass == "" {
		return DefaultClass
	}
	return p.TaxClass
}

type noTax struct{}

func (noTax) Key() string { return ModuleNone }

func (noTax) ByPrice(context.Context, string, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (noTax) Process(_ context.Context, order *model.Order) (decimal.Decimal, []model.OrderTaxDetail, error) {
	for i := range order.Items {
		setItemTax(&order.Items[i], decimal.Zero)
	}
	return decimal.Zero, nil, nil
}
