package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/middleware"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// Checkout places the order. A declined payment answers 402 with the result,
// so the customer can retry with other payment details.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.Checkout(ctx, req, middleware.Contact(c))
	if err != nil {
		return err
	}

	if !resp.Result.Success {
		return c.JSON(http.StatusPaymentRequired, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) ShippingOptions(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddressRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	options, err := h.checkoutService.ShippingOptions(ctx, c.Param("key"), middleware.Contact(c), req.Model())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ShippingOptionsResponse{Options: options})
}

func (h *CheckoutHandler) PaymentOptions(c echo.Context) error {
	ctx := c.Request().Context()

	options, err := h.checkoutService.PaymentOptions(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.PaymentOptionsResponse{Options: options})
}

func (h *CheckoutHandler) CheckDiscount(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing code")
	}

	resp, err := h.checkoutService.CheckDiscount(ctx, code, c.Param("key"), middleware.Contact(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
