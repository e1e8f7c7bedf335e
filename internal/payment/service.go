package payment

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Option is an enabled module as offered at checkout.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type Service struct {
	registry *Registry
	settings *livesettings.Registry
	repo     repository.PaymentRepository
	recorder *Recorder
}

func NewService(registry *Registry, settings *livesettings.Registry, repo repository.PaymentRepository, recorder *Recorder) *Service {
	return &Service{registry: registry, settings: settings, repo: repo, recorder: recorder}
}

func (s *Service) Recorder() *Recorder { return s.recorder }

// Processor returns an enabled processor.
func (s *Service) Processor(ctx context.Context, key string) (Processor, error) {
	p, err := s.registry.Get(key)
	if err != nil {
		return nil, err
	}
	enabled, err := Enabled(ctx, s.settings, key)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, fmt.Errorf("%q: %w", key, ErrProcessorDisabled)
	}
	return p, nil
}

func (s *Service) Options(ctx context.Context) ([]Option, error) {
	keys, err := s.settings.Strings(ctx, Group, "MODULES")
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(keys))
	for _, key := range keys {
		p, err := s.registry.Get(key)
		if err != nil {
			logger.FromContext(ctx).Warn("enabled payment module is not registered", zap.String("module", key))
			continue
		}
		options = append(options, Option{Key: key, Label: p.Label(ctx)})
	}
	return options, nil
}

// Process charges the order balance with the module key. The module's CAPTURE
// setting decides between capturing now and authorizing for a later capture.
func (s *Service) Process(ctx context.Context, key string, order *model.Order, data PaymentData) (*ProcessorResult, error) {
	p, err := s.Processor(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := p.Prepare(ctx, order, data); err != nil {
		return nil, err
	}

	amount := order.Balance()
	if !amount.IsPositive() {
		return &ProcessorResult{Processor: key, Success: true, Message: "Nothing to pay"}, nil
	}

	capture, err := s.settings.Bool(ctx, GroupFor(key), "CAPTURE")
	if err != nil {
		return nil, err
	}

	var res *ProcessorResult
	if capture || !p.CanAuthorize() {
		res, err = p.CapturePayment(ctx, order, amount, data)
	} else {
		res, err = p.AuthorizePayment(ctx, order, amount, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s payment: %w", key, err)
	}
	return res, s.record(ctx, order, res)
}

func (s *Service) record(ctx context.Context, order *model.Order, res *ProcessorResult) error {
	l := logger.FromContext(ctx)
	if res.Success {
		l.Info("payment processed",
			zap.Uint("order_id", order.ID),
			zap.String("processor", res.Processor),
			zap.String("amount", res.Amount.StringFixed(2)))
	} else {
		l.Warn("payment declined",
			zap.Uint("order_id", order.ID),
			zap.String("processor", res.Processor),
			zap.String("reason_code", res.ReasonCode),
			zap.String("message", res.Message))
	}
	return s.recorder.Record(ctx, order, res)
}

// CaptureAuthorizations captures every open authorization on order.
func (s *Service) CaptureAuthorizations(ctx context.Context, order *model.Order) ([]*ProcessorResult, error) {
	auths, err := s.repo.OpenAuthorizations(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load authorizations: %w", err)
	}

	results := make([]*ProcessorResult, 0, len(auths))
	for i := range auths {
		auth := &auths[i]
		p, err := s.registry.Get(auth.Method)
		if err != nil {
			return results, err
		}
		res, err := p.CaptureAuthorizedPayment(ctx, order, auth)
		if err != nil {
			return results, fmt.Errorf("capture authorization %d: %w", auth.ID, err)
		}
		if err := s.record(ctx, order, res); err != nil {
			return results, err
		}
		if res.Success && res.Payment != nil {
			if err := s.repo.CompleteAuthorization(ctx, auth.ID, res.Payment.ID); err != nil {
				return results, fmt.Errorf("complete authorization %d: %w", auth.ID, err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// ReleaseAuthorizations voids every open authorization on order.
func (s *Service) ReleaseAuthorizations(ctx context.Context, order *model.Order) ([]*ProcessorResult, error) {
	auths, err := s.repo.OpenAuthorizations(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load authorizations: %w", err)
	}

	var errs []error
	results := make([]*ProcessorResult, 0, len(auths))
	for i := range auths {
		auth := &auths[i]
		p, err := s.registry.Get(auth.Method)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res, err := p.ReleaseAuthorizedPayment(ctx, order, auth)
		if err != nil {
			errs = append(errs, fmt.Errorf("release authorization %d: %w", auth.ID, err))
			continue
		}
		if res.Success {
			// a released authorization is closed without a capture
			if err := s.repo.CompleteAuthorization(ctx, auth.ID, 0); err != nil {
				errs = append(errs, err)
			}
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// ResolvePending records payments for money received outside a gateway, e.g.
// a purchase order invoice or cash on delivery, and closes the pending rows.
func (s *Service) ResolvePending(ctx context.Context, order *model.Order, method, transactionID string) ([]*ProcessorResult, error) {
	pending, err := s.repo.Pending(ctx, order.ID, method)
	if err != nil {
		return nil, fmt.Errorf("load pending payments: %w", err)
	}

	results := make([]*ProcessorResult, 0, len(pending))
	for _, pp := range pending {
		txID := transactionID
		if txID == "" {
			txID = pp.Reference
		}
		res := Captured(method, order.ID, pp.Amount, txID, "pending payment received")
		if err := s.record(ctx, order, res); err != nil {
			return results, err
		}
		if err := s.repo.ResolvePending(ctx, pp.ID, res.Payment.ID); err != nil {
			return results, fmt.Errorf("resolve pending payment %d: %w", pp.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Minimum is the smallest order total accepted at checkout.
func (s *Service) Minimum(ctx context.Context) (decimal.Decimal, error) {
	return s.settings.Decimal(ctx, Group, "MINIMUM_ORDER")
}

// Complete records a capture reported by a gateway after checkout, such as a
// PayPal return or webhook. A transaction already recorded is skipped, so the
// return and the webhook can both report the same capture. Recording a payment
// closes the module's pending payments on the order.
func (s *Service) Complete(ctx context.Context, order *model.Order, res *ProcessorResult) (bool, error) {
	if res.Success && res.Payment != nil && res.Payment.TransactionID != "" {
		exists, err := s.repo.Exists(ctx, res.Payment.TransactionID)
		if err != nil {
			return false, fmt.Errorf("check payment %s: %w", res.Payment.TransactionID, err)
		}
		if exists {
			return false, nil
		}
	}

	if err := s.record(ctx, order, res); err != nil {
		return false, err
	}
	if !res.Success || res.Payment == nil {
		return false, nil
	}

	pending, err := s.repo.Pending(ctx, order.ID, res.Processor)
	if err != nil {
		return true, fmt.Errorf("load pending payments: %w", err)
	}
	for _, pp := range pending {
		if err := s.repo.ResolvePending(ctx, pp.ID, res.Payment.ID); err != nil {
			return true, fmt.Errorf("resolve pending payment %d: %w", pp.ID, err)
		}
	}
	return true, nil
}
