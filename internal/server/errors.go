package server

import (
	"errors"
	"fmt"
	"net/http"
	"satchmo-store/internal/client"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/payment/giftcertificate"
	"satchmo-store/internal/pricing"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/service"
	"satchmo-store/internal/shipping"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// ordered: the first match wins
var errorMappings = []errorMapping{
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrSignInRequired, http.StatusUnauthorized, "sign_in_required"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{livesettings.ErrSettingLocked, http.StatusConflict, "setting_locked"},
	{livesettings.ErrSettingNotSet, http.StatusNotFound, "setting_not_found"},
	{livesettings.ErrInvalidChoice, http.StatusUnprocessableEntity, "invalid_choice"},
	{livesettings.ErrInvalidValue, http.StatusUnprocessableEntity, "invalid_value"},
	{client.ErrWebhookSignature, http.StatusBadRequest, "webhook_signature"},
	{service.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{service.ErrInvalidQuantity, http.StatusUnprocessableEntity, "invalid_quantity"},
	{service.ErrNotEnoughStock, http.StatusUnprocessableEntity, "not_enough_stock"},
	{service.ErrProductUnavailable, http.StatusUnprocessableEntity, "product_unavailable"},
	{service.ErrBelowMinimum, http.StatusUnprocessableEntity, "below_minimum"},
	{service.ErrShippingRequired, http.StatusUnprocessableEntity, "shipping_required"},
	{service.ErrAddressRequired, http.StatusUnprocessableEntity, "address_required"},
	{service.ErrCountryNotAllowed, http.StatusUnprocessableEntity, "country_not_allowed"},
	{service.ErrContactRequired, http.StatusUnprocessableEntity, "contact_required"},
	{service.ErrInvalidStatusChange, http.StatusUnprocessableEntity, "invalid_status_change"},
	{service.ErrNoBalanceDue, http.StatusConflict, "no_balance_due"},
	{service.ErrPaymentOutstanding, http.StatusConflict, "payment_outstanding"},
	{pricing.ErrDiscountInvalid, http.StatusUnprocessableEntity, "discount_invalid"},
	{pricing.ErrNoPrice, http.StatusUnprocessableEntity, "no_price"},
	{shipping.ErrMethodNotFound, http.StatusUnprocessableEntity, "shipping_method_not_found"},
	{shipping.ErrNoTier, http.StatusUnprocessableEntity, "shipping_no_tier"},
	{shipping.ErrNotValid, http.StatusUnprocessableEntity, "shipping_not_valid"},
	{payment.ErrProcessorNotFound, http.StatusUnprocessableEntity, "payment_method_not_found"},
	{payment.ErrProcessorDisabled, http.StatusUnprocessableEntity, "payment_method_disabled"},
	{payment.ErrInvalidPaymentData, http.StatusUnprocessableEntity, "invalid_payment_data"},
	{payment.ErrAuthorizeUnsupported, http.StatusUnprocessableEntity, "authorize_unsupported"},
	{giftcertificate.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
}

// errorHandler renders every error returned by a handler as a
// dto.ErrorResponse. Unknown errors are logged and hidden behind a 500.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := errorResponse(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(c.Request().Context()).Error("request error", zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}

func errorResponse(err error) (int, *dto.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, &dto.ErrorResponse{Code: strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_"), Message: msg}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = validationMessage(fe)
		}
		return http.StatusBadRequest, &dto.ErrorResponse{
			Code:    "validation_failed",
			Message: "Request validation failed",
			Fields:  fields,
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, &dto.ErrorResponse{Code: m.code, Message: err.Error()}
		}
	}

	return http.StatusInternalServerError, &dto.ErrorResponse{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

// fieldPath drops the root struct name: "ship_address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
