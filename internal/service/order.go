package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"satchmo-store/internal/pricing"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/shipping"
	"satchmo-store/internal/tax"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderInput is what the customer chooses at checkout besides the cart.
type OrderInput struct {
	ShipAddress    model.Address
	BillAddress    model.Address
	ShippingMethod string
	DiscountCode   string
	PaymentMethod  string
	Notes          string
}

type OrderService interface {
	// Draft prices the cart into an unsaved order.
	Draft(ctx context.Context, cart *model.Cart, contact *model.Contact, input OrderInput) (*model.Order, error)
	// FromCart stores a Temp order built by Draft.
	FromCart(ctx context.Context, cart *model.Cart, contact *model.Contact, input OrderInput) (*model.Order, error)
	// Save stores a draft as a Temp order.
	Save(ctx context.Context, order *model.Order) error
	// Recalculate refreshes discount, shipping, tax and total in place.
	Recalculate(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, orderID uint) (*model.Order, error)
	ListForContact(ctx context.Context, contactID uint) ([]*model.Order, error)
	AddStatus(ctx context.Context, orderID uint, status model.OrderStatusCode, notes string) (*model.Order, error)
	// CompletePayment runs the paid-in-full actions once. It reports whether
	// this call completed the order.
	CompletePayment(ctx context.Context, orderID uint) (*model.Order, bool, error)
}

type orderServiceImpl struct {
	repos    *repository.Repositories
	pricing  PricingService
	shipping *shipping.Service
	tax      *tax.Service
	hooks    *hooks.Hooks
	now      func() time.Time
}

func NewOrderService(
	repos *repository.Repositories,
	pricing PricingService,
	shipping *shipping.Service,
	tax *tax.Service,
	hooks *hooks.Hooks,
) OrderService {
	return &orderServiceImpl{
		repos:    repos,
		pricing:  pricing,
		shipping: shipping,
		tax:      tax,
		hooks:    hooks,
		now:      time.Now,
	}
}

func (s *orderServiceImpl) Draft(ctx context.Context, cart *model.Cart, contact *model.Contact, input OrderInput) (*model.Order, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	bill := input.BillAddress
	if bill.IsZero() {
		bill = input.ShipAddress
	}
	order := &model.Order{
		ContactID:     contact.ID,
		Status:        model.StatusTemp,
		Method:        model.MethodOnline,
		ShipAddress:   input.ShipAddress,
		BillAddress:   bill,
		Notes:         input.Notes,
		DiscountCode:  input.DiscountCode,
		ShippingModel: input.ShippingMethod,
		PaymentMethod: input.PaymentMethod,
		TimeStamp:     s.now(),
		Items:         make([]model.OrderItem, 0, len(cart.Items)),
	}

	for _, ci := range cart.Items {
		if !ci.Product.Active {
			return nil, fmt.Errorf("%s: %w", ci.Product.Name, ErrProductUnavailable)
		}
		unit, err := s.pricing.UnitPrice(ctx, &ci.Product, ci.Quantity, contact)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID: ci.ProductID,
			Product:   ci.Product,
			Quantity:  ci.Quantity,
			UnitPrice: unit,
			LinePrice: unit.Mul(decimal.NewFromInt(int64(ci.Quantity))),
		})
	}

	if err := s.Recalculate(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) FromCart(ctx context.Context, cart *model.Cart, contact *model.Contact, input OrderInput) (*model.Order, error) {
	order, err := s.Draft(ctx, cart, contact, input)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) Save(ctx context.Context, order *model.Order) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.Orders.ReplaceTaxDetails(ctx, order.ID, order.TaxDetails); err != nil {
			return fmt.Errorf("save tax details: %w", err)
		}
		return tx.Orders.AddStatus(ctx, &model.OrderStatus{
			OrderID:   order.ID,
			Status:    model.StatusTemp,
			TimeStamp: order.TimeStamp,
		})
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("contact_id", order.ContactID),
		zap.String("total", order.Total.StringFixed(2)))
	return nil
}

func (s *orderServiceImpl) Recalculate(ctx context.Context, order *model.Order) error {
	order.Subtotal = decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		item.LinePrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.Discount = decimal.Zero
		order.Subtotal = order.Subtotal.Add(item.LinePrice)
	}

	if err := s.applyShipping(ctx, order); err != nil {
		return err
	}
	if err := s.applyDiscount(ctx, order); err != nil {
		return err
	}

	processor, err := s.tax.Processor(ctx)
	if err != nil {
		return err
	}
	taxTotal, details, err := processor.Process(ctx, order)
	if err != nil {
		return fmt.Errorf("calculate tax: %w", err)
	}
	order.Tax = taxTotal
	order.TaxDetails = details

	order.Total = order.Subtotal.
		Add(order.Shipping).
		Sub(order.ShippingDiscount).
		Sub(order.Discount).
		Add(order.Tax)
	return nil
}

func (s *orderServiceImpl) applyShipping(ctx context.Context, order *model.Order) error {
	order.Shipping = decimal.Zero
	order.ShippingDescription = ""
	order.ShippingMethod = ""
	if !order.IsShippable() {
		order.ShippingModel = ""
		return nil
	}
	if order.ShippingModel == "" {
		return nil
	}

	method, cost, err := s.shipping.Quote(ctx, order, order.ShippingModel)
	if err != nil {
		return err
	}
	order.Shipping = cost
	order.ShippingDescription = method.Description()
	order.ShippingMethod = method.Method()
	return nil
}

func discountLines(order *model.Order) []pricing.Line {
	lines := make([]pricing.Line, len(order.Items))
	for i, item := range order.Items {
		lines[i] = pricing.Line{ProductID: item.ProductID, LinePrice: item.LinePrice}
	}
	return lines
}

// applyDiscount uses the entered code, or else the best automatic discount.
func (s *orderServiceImpl) applyDiscount(ctx context.Context, order *model.Order) error {
	order.Discount = decimal.Zero
	order.ShippingDiscount = decimal.Zero

	lines := discountLines(order)
	now := s.now()

	var discount *model.Discount
	if order.DiscountCode != "" {
		d, err := s.repos.Discounts.FindByCode(ctx, order.DiscountCode)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown code %q", pricing.ErrDiscountInvalid, order.DiscountCode)
		}
		if err != nil {
			return fmt.Errorf("find discount: %w", err)
		}
		if err := pricing.ValidateDiscount(d, order.Subtotal, lines, now); err != nil {
			return err
		}
		discount = d
	} else {
		automatic, err := s.repos.Discounts.ListAutomatic(ctx)
		if err != nil {
			return fmt.Errorf("list automatic discounts: %w", err)
		}
		best := decimal.Zero
		for _, d := range automatic {
			if pricing.ValidateDiscount(d, order.Subtotal, lines, now) != nil {
				continue
			}
			if total := pricing.CalcDiscount(d, lines, order.Shipping).Total(); total.GreaterThan(best) {
				best = total
				discount = d
			}
		}
	}
	if discount == nil {
		return nil
	}

	result := pricing.CalcDiscount(discount, lines, order.Shipping)
	for i := range order.Items {
		order.Items[i].Discount = result.Lines[i]
	}
	order.Discount = result.Items
	order.ShippingDiscount = result.Shipping
	order.DiscountCode = discount.Code
	return nil
}

func (s *orderServiceImpl) Get(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", orderID, err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListForContact(ctx context.Context, contactID uint) ([]*model.Order, error) {
	return s.repos.Orders.ListByContact(ctx, contactID)
}

func (s *orderServiceImpl) AddStatus(ctx context.Context, orderID uint, status model.OrderStatusCode, notes string) (*model.Order, error) {
	if status == model.StatusTemp {
		return nil, ErrInvalidStatusChange
	}
	err := s.repos.Orders.AddStatus(ctx, &model.OrderStatus{
		OrderID:   orderID,
		Status:    status,
		Notes:     notes,
		TimeStamp: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("add order status: %w", err)
	}
	return s.Get(ctx, orderID)
}

func (s *orderServiceImpl) CompletePayment(ctx context.Context, orderID uint) (*model.Order, bool, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if !order.PaidInFull() {
		return order, false, nil
	}

	now := s.now()
	completed := false
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		first, err := tx.Orders.MarkPaid(ctx, order.ID, now)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !first {
			return nil
		}
		completed = true

		for _, item := range order.Items {
			if err := tx.Products.RecordSale(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("record sale of product %d: %w", item.ProductID, err)
			}
			expires := item.ExpireDate
			if expires == nil && item.Product.Kind == model.ProductKindSubscription && item.Product.ExpireLength > 0 {
				t := item.Product.ExtendExpiry(now)
				expires = &t
			}
			if err := tx.Orders.CompleteItem(ctx, item.ID, expires); err != nil {
				return fmt.Errorf("complete order item %d: %w", item.ID, err)
			}
		}

		if order.DiscountCode != "" {
			err := tx.Discounts.IncrementUses(ctx, order.DiscountCode)
			if errors.Is(err, repository.ErrDiscountUsedUp) {
				// the order is paid already; it keeps the discount it was priced with
				logger.FromContext(ctx).Warn("discount used up before payment completed",
					zap.Uint("order_id", order.ID),
					zap.String("code", order.DiscountCode))
			} else if err != nil {
				return fmt.Errorf("count discount use: %w", err)
			}
		}

		if order.Status == model.StatusTemp || order.Status == model.StatusNew {
			return tx.Orders.AddStatus(ctx, &model.OrderStatus{
				OrderID:   order.ID,
				Status:    model.StatusInProcess,
				Notes:     "Paid in full",
				TimeStamp: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !completed {
		return order, false, nil
	}

	order, err = s.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	logger.FromContext(ctx).Info("order paid in full", zap.Uint("order_id", order.ID))
	s.hooks.OrderSuccess.Send(ctx, hooks.OrderSuccess{Order: order})
	return order, true, nil
}
