// Package hooks provides typed in-process extension points.
package hooks

import (
	"context"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Listener[T any] func(ctx context.Context, payload T) error

// Signal fans a payload out to its listeners in connection order.
// A failing listener is logged and does not stop the others.
type Signal[T any] struct {
	name      string
	mu        sync.RWMutex
	listeners []Listener[T]
}

func NewSignal[T any](name string) *Signal[T] {
	return &Signal[T]{name: name}
}

func (s *Signal[T]) Connect(fn Listener[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Signal[T]) Send(ctx context.Context, payload T) {
	s.mu.RLock()
	listeners := make([]Listener[T], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for i, fn := range listeners {
		if err := fn(ctx, payload); err != nil {
			logger.FromContext(ctx).Error("hook listener failed",
				zap.String("signal", s.name),
				zap.Int("listener", i),
				zap.Error(err))
		}
	}
}

type OrderSuccess struct {
	Order *model.Order
}

type CartAdd struct {
	Cart     *model.Cart
	Product  *model.Product
	Quantity int
}

type PaymentComplete struct {
	Order   *model.Order
	Payment *model.OrderPayment
}

// PriceQuery lets listeners adjust a resolved unit price in place.
type PriceQuery struct {
	Product  *model.Product
	Contact  *model.Contact
	Quantity int
	Price    *decimal.Decimal
}

type Hooks struct {
	OrderSuccess    *Signal[OrderSuccess]
	CartAdd         *Signal[CartAdd]
	PaymentComplete *Signal[PaymentComplete]
	PriceQuery      *Signal[PriceQuery]
}

func New() *Hooks {
	return &Hooks{
		OrderSuccess:    NewSignal[OrderSuccess]("order_success"),
		CartAdd:         NewSignal[CartAdd]("cart_add"),
		PaymentComplete: NewSignal[PaymentComplete]("payment_complete"),
		PriceQuery:      NewSignal[PriceQuery]("price_query"),
	}
}
