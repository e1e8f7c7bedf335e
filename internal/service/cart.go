package service

import (
	"context"
	"fmt"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Create(ctx context.Context, contact *model.Contact) (*model.Cart, error)
	Get(ctx context.Context, key string) (*model.Cart, error)
	// AddItem adds qty units, merging with a line already holding the product.
	AddItem(ctx context.Context, key string, productID uint, qty int, contact *model.Contact) (*model.Cart, error)
	// SetQuantity replaces a line's quantity; zero removes the line.
	SetQuantity(ctx context.Context, key string, productID uint, qty int) (*model.Cart, error)
	RemoveItem(ctx context.Context, key string, productID uint) (*model.Cart, error)
	Empty(ctx context.Context, key string) error
	Summary(ctx context.Context, cart *model.Cart, contact *model.Contact) (*dto.CartResponse, error)
}

type cartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	pricing  PricingService
	settings *livesettings.Registry
	hooks    *hooks.Hooks
	money    *l10n.Formatter
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	pricing PricingService,
	settings *livesettings.Registry,
	hooks *hooks.Hooks,
	money *l10n.Formatter,
) CartService {
	return &cartServiceImpl{
		carts:    carts,
		products: products,
		pricing:  pricing,
		settings: settings,
		hooks:    hooks,
		money:    money,
	}
}

func (s *cartServiceImpl) Create(ctx context.Context, contact *model.Contact) (*model.Cart, error) {
	cart := &model.Cart{Key: uuid.NewString()}
	if contact != nil {
		cart.ContactID = &contact.ID
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) Get(ctx context.Context, key string) (*model.Cart, error) {
	cart, err := s.carts.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return cart, nil
}

func findItem(cart *model.Cart, productID uint) *model.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}

// checkStock enforces SHOP.CART_QTY for products that are shipped from stock.
func (s *cartServiceImpl) checkStock(ctx context.Context, product *model.Product, qty int) error {
	if !product.Shippable {
		return nil
	}
	limit, err := s.settings.Bool(ctx, livesettings.GroupShop, "CART_QTY")
	if err != nil {
		return err
	}
	if limit && qty > product.ItemsInStock {
		return fmt.Errorf("%w: %d of %s available", ErrNotEnoughStock, product.ItemsInStock, product.Name)
	}
	return nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, key string, productID uint, qty int, contact *model.Contact) (*model.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", productID, err)
	}
	if !product.Active {
		return nil, fmt.Errorf("%s: %w", product.Name, ErrProductUnavailable)
	}
	if _, err := s.pricing.UnitPrice(ctx, product, qty, contact); err != nil {
		return nil, fmt.Errorf("%s: %w", product.Name, ErrProductUnavailable)
	}

	item := findItem(cart, productID)
	if item == nil {
		item = &model.CartItem{CartID: cart.ID, ProductID: productID}
	}
	if err := s.checkStock(ctx, product, item.Quantity+qty); err != nil {
		return nil, err
	}
	item.Quantity += qty
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}

	if contact != nil && cart.ContactID == nil {
		if err := s.carts.SetContact(ctx, cart.ID, contact.ID); err != nil {
			return nil, fmt.Errorf("attach cart: %w", err)
		}
	}

	cart, err = s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.hooks.CartAdd.Send(ctx, hooks.CartAdd{Cart: cart, Product: product, Quantity: qty})
	return cart, nil
}

func (s *cartServiceImpl) SetQuantity(ctx context.Context, key string, productID uint, qty int) (*model.Cart, error) {
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}
	if qty == 0 {
		return s.RemoveItem(ctx, key, productID)
	}

	cart, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	item := findItem(cart, productID)
	if item == nil {
		return nil, fmt.Errorf("cart item %d: %w", productID, repository.ErrNotFound)
	}
	if err := s.checkStock(ctx, &item.Product, qty); err != nil {
		return nil, err
	}

	item.Quantity = qty
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}
	return s.Get(ctx, key)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, key string, productID uint) (*model.Cart, error) {
	cart, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return s.Get(ctx, key)
}

func (s *cartServiceImpl) Empty(ctx context.Context, key string) error {
	cart, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return s.carts.Empty(ctx, cart.ID)
}

func (s *cartServiceImpl) Summary(ctx context.Context, cart *model.Cart, contact *model.Contact) (*dto.CartResponse, error) {
	resp := &dto.CartResponse{
		Key:       cart.Key,
		Items:     make([]dto.CartLine, 0, len(cart.Items)),
		NumItems:  cart.NumItems(),
		Subtotal:  decimal.Zero,
		Shippable: cart.IsShippable(),
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		unit, err := s.pricing.UnitPrice(ctx, &item.Product, item.Quantity, contact)
		if err != nil {
			return nil, err
		}
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, dto.CartLine{
			ProductID: item.ProductID,
			SKU:       item.Product.SKU,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LinePrice: line,
		})
		resp.Subtotal = resp.Subtotal.Add(line)
	}
	resp.SubtotalDisplay = formatMoney(ctx, s.money, resp.Subtotal)
	return resp, nil
}
