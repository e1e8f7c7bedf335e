package hooks

import (
	"context"
	"errors"
	"satchmo-store/internal/logger"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSignalSendContinuesAfterError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	s := NewSignal[int]("numbers")
	var got []int
	s.Connect(func(ctx context.Context, n int) error { return errors.New("first fails") })
	s.Connect(func(ctx context.Context, n int) error {
		got = append(got, n)
		return nil
	})

	s.Send(ctx, 7)

	assert.Equal(t, []int{7}, got)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "numbers", logs.All()[0].ContextMap()["signal"])
}

func TestPriceQueryAdjustsPrice(t *testing.T) {
	h := New()
	h.PriceQuery.Connect(func(ctx context.Context, q PriceQuery) error {
		*q.Price = q.Price.Sub(decimal.NewFromInt(1))
		return nil
	})

	price := decimal.NewFromInt(10)
	h.PriceQuery.Send(context.Background(), PriceQuery{Quantity: 1, Price: &price})
	assert.True(t, decimal.NewFromInt(9).Equal(price))
}
