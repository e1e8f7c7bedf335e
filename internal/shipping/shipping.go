// Package shipping quotes the shipping modules enabled in SHIPPING.MODULES.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Group = "SHIPPING"

	ModuleFlat   = "flat"
	ModulePer    = "per"
	ModuleTiered = "tiered"
	ModuleFree   = "free"
)

var (
	ErrMethodNotFound = errors.New("shipping method not found")
	ErrNoTier         = errors.New("no shipping tier for order")
	ErrNotValid       = errors.New("shipping method not valid for order")
)

type Method interface {
	Key() string
	Description() string
	Method() string
	ExpectedDelivery() string
	Valid(ctx context.Context, order *model.Order) bool
	Cost(ctx context.Context, order *model.Order) (decimal.Decimal, error)
}

// Option is a quoted method.
type Option struct {
	Key              string          `json:"key"`
	Description      string          `json:"description"`
	Method           string          `json:"method"`
	ExpectedDelivery string          `json:"expected_delivery"`
	Cost             decimal.Decimal `json:"cost"`
}

func RegisterSettings(r *livesettings.Registry) error {
	r.RegisterGroup(livesettings.Group{Key: Group, Name: "Shipping Settings", Ordering: 30})
	r.RegisterGroup(livesettings.Group{Key: "SHIPPING_FLAT", Name: "Flat rate shipping", Ordering: 31})
	r.RegisterGroup(livesettings.Group{Key: "SHIPPING_PER", Name: "Per piece shipping", Ordering: 32})
	r.RegisterGroup(livesettings.Group{Key: "SHIPPING_FREE", Name: "Free shipping", Ordering: 33})

	requires := func(module string) *livesettings.Requirement {
		return &livesettings.Requirement{Group: Group, Key: "MODULES", Value: module}
	}

	return r.Register(
		livesettings.Value{
			Group:       Group,
			Key:         "MODULES",
			Kind:        livesettings.KindMultipleString,
			Description: "Enabled shipping modules",
			Default:     []string{ModuleFlat},
			Choices: []livesettings.Choice{
				{Value: ModuleFlat, Label: "Flat rate"},
				{Value: ModulePer, Label: "Per piece"},
				{Value: ModuleTiered, Label: "Tiered carriers"},
				{Value: ModuleFree, Label: "Free shipping"},
			},
		},
		livesettings.Value{
			Group:       "SHIPPING_FLAT",
			Key:         "RATE",
			Kind:        livesettings.KindDecimal,
			Description: "Flat shipping rate",
			Default:     "4.00",
			Requires:    requires(ModuleFlat),
		},
		livesettings.Value{
			Group:       "SHIPPING_FLAT",
			Key:         "SERVICE",
			Kind:        livesettings.KindString,
			Description: "Flat shipping service name",
			Default:     "U.S. Mail",
			Requires:    requires(ModuleFlat),
		},
		livesettings.Value{
			Group:       "SHIPPING_FLAT",
			Key:         "DAYS",
			Kind:        livesettings.KindString,
			Description: "Flat delivery days",
			Default:     "3 - 4 business days",
			Requires:    requires(ModuleFlat),
		},
		livesettings.Value{
			Group:       "SHIPPING_PER",
			Key:         "RATE",
			Kind:        livesettings.KindDecimal,
			Description: "Per item shipping rate",
			Default:     "1.00",
			Requires:    requires(ModulePer),
		},
		livesettings.Value{
			Group:       "SHIPPING_PER",
			Key:         "SERVICE",
			Kind:        livesettings.KindString,
			Description: "Per item service name",
			Default:     "U.S. Mail",
			Requires:    requires(ModulePer),
		},
		livesettings.Value{
			Group:       "SHIPPING_PER",
			Key:         "DAYS",
			Kind:        livesettings.KindString,
			Description: "Per item delivery days",
			Default:     "3 - 4 business days",
			Requires:    requires(ModulePer),
		},
		livesettings.Value{
			Group:       "SHIPPING_FREE",
			Key:         "MINIMUM",
			Kind:        livesettings.KindDecimal,
			Description: "Minimum order subtotal for free shipping",
			Default:     "0.00",
			Requires:    requires(ModuleFree),
		},
	)
}

type Service struct {
	settings *livesettings.Registry
	carriers repository.ShippingRepository
	now      func() time.Time
}

func NewService(settings *livesettings.Registry, carriers repository.ShippingRepository) *Service {
	return &Service{settings: settings, carriers: carriers, now: time.Now}
}

// Methods builds every enabled method. Tiered shipping yields one method per active carrier.
func (s *Service) Methods(ctx context.Context) ([]Method, error) {
	modules, err := s.settings.Strings(ctx, Group, "MODULES")
	if err != nil {
		return nil, err
	}

	var methods []Method
	for _, module := range modules {
		switch module {
		case ModuleFlat, ModulePer:
			m, err := s.rateMethod(ctx, module)
			if err != nil {
				return nil, err
			}
			methods = append(methods, m)
		case ModuleTiered:
			carriers, err := s.carriers.ActiveCarriers(ctx)
			if err != nil {
				return nil, fmt.Errorf("load carriers: %w", err)
			}
			for _, c := range carriers {
				methods = append(methods, &tieredMethod{carrier: c, now: s.now})
			}
		case ModuleFree:
			minimum, err := s.settings.Decimal(ctx, "SHIPPING_FREE", "MINIMUM")
			if err != nil {
				return nil, err
			}
			methods = append(methods, &freeMethod{minimum: minimum})
		default:
			return nil, fmt.Errorf("shipping module %q: %w", module, ErrMethodNotFound)
		}
	}
	return methods, nil
}

func (s *Service) rateMethod(ctx context.Context, module string) (*rateMethod, error) {
	group := "SHIPPING_" + strings.ToUpper(module)
	rate, err := s.settings.Decimal(ctx, group, "RATE")
	if err != nil {
		return nil, err
	}
	service, err := s.settings.String(ctx, group, "SERVICE")
	if err != nil {
		return nil, err
	}
	days, err := s.settings.String(ctx, group, "DAYS")
	if err != nil {
		return nil, err
	}
	return &rateMethod{key: module, rate: rate, perItem: module == ModulePer, service: service, days: days}, nil
}

// Method finds an enabled method by key.
func (s *Service) Method(ctx context.Context, key string) (Method, error) {
	methods, err := s.Methods(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if m.Key() == key {
			return m, nil
		}
	}
	return nil, fmt.Errorf("shipping method %q: %w", key, ErrMethodNotFound)
}

// Options quotes the valid methods for order, cheapest first.
func (s *Service) Options(ctx context.Context, order *model.Order) ([]Option, error) {
	methods, err := s.Methods(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]Option, 0, len(methods))
	for _, m := range methods {
		if !m.Valid(ctx, order) {
			continue
		}
		cost, err := m.Cost(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", m.Key(), err)
		}
		options = append(options, Option{
			Key:              m.Key(),
			Description:      m.Description(),
			Method:           m.Method(),
			ExpectedDelivery: m.ExpectedDelivery(),
			Cost:             cost,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Cost.LessThan(options[j].Cost)
	})
	return options, nil
}

// Quote prices order with the method key, rejecting methods that are not valid for it.
func (s *Service) Quote(ctx context.Context, order *model.Order, key string) (Method, decimal.Decimal, error) {
	m, err := s.Method(ctx, key)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !m.Valid(ctx, order) {
		return nil, decimal.Zero, fmt.Errorf("shipping method %q: %w", key, ErrNotValid)
	}
	cost, err := m.Cost(ctx, order)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return m, cost, nil
}

func shippableQuantity(order *model.Order) int {
	n := 0
	for _, item := range order.Items {
		if item.Product.Shippable {
			n += item.Quantity
		}
	}
	return n
}

func shippableTotal(order *model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		if item.Product.Shippable {
			total = total.Add(item.LinePrice)
		}
	}
	return total
}

func shippableWeight(order *model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		if item.Product.Shippable {
			total = total.Add(item.Product.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total
}
