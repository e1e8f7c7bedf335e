package payment

import (
	"context"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Base carries the settings access shared by modules. Modules embed it and
// override the operations they support.
type Base struct {
	key      string
	Settings *livesettings.Registry
}

func NewBase(key string, settings *livesettings.Registry) Base {
	return Base{key: key, Settings: settings}
}

func (b Base) Key() string { return b.key }

func (b Base) Group() string { return GroupFor(b.key) }

func (b Base) Label(ctx context.Context) string {
	label, err := b.Settings.String(ctx, b.Group(), "LABEL")
	if err != nil || label == "" {
		return b.key
	}
	return label
}

func (b Base) CanAuthorize() bool { return false }

func (b Base) CanRecurBill() bool { return false }

func (b Base) Prepare(context.Context, *model.Order, PaymentData) error { return nil }

// Live reports whether the module talks to the production gateway.
func (b Base) Live(ctx context.Context) bool {
	live, err := b.Settings.Bool(ctx, b.Group(), "LIVE")
	return err == nil && live
}

func (b Base) Setting(ctx context.Context, key string) (string, error) {
	return b.Settings.String(ctx, b.Group(), key)
}

// Logger returns the request logger, promoted to debug level detail when EXTRA_LOGGING is on.
func (b Base) Logger(ctx context.Context) (*zap.Logger, bool) {
	l := logger.FromContext(ctx).With(zap.String("payment_module", b.key))
	extra, err := b.Settings.Bool(ctx, b.Group(), "EXTRA_LOGGING")
	return l, err == nil && extra
}

func (b Base) AuthorizePayment(context.Context, *model.Order, decimal.Decimal, PaymentData) (*ProcessorResult, error) {
	return nil, ErrAuthorizeUnsupported
}

func (b Base) CaptureAuthorizedPayment(_ context.Context, _ *model.Order, auth *model.OrderAuthorization) (*ProcessorResult, error) {
	return Failure(b.key, "", "authorizations are not supported", auth.Amount), nil
}

func (b Base) ReleaseAuthorizedPayment(_ context.Context, _ *model.Order, auth *model.OrderAuthorization) (*ProcessorResult, error) {
	return Failure(b.key, "", "authorizations are not supported", auth.Amount), nil
}
