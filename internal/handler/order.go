package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/middleware"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService    service.OrderService
	checkoutService service.CheckoutService
}

func NewOrderHandler(orderService service.OrderService, checkoutService service.CheckoutService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		checkoutService: checkoutService,
	}
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListForContact(ctx, middleware.Contact(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

// Get returns one of the caller's orders. Staff may read any order.
func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(ctx, id)
	if err != nil {
		return err
	}

	contact := middleware.Contact(c)
	if order.ContactID != contact.ID && !contact.IsStaff() {
		return service.ErrForbidden
	}

	return c.JSON(http.StatusOK, order)
}

// PayBalance pays the rest of one of the caller's orders. A declined payment
// answers 402 like checkout.
func (h *OrderHandler) PayBalance(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.BalancePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.PayBalance(ctx, id, middleware.Contact(c), req)
	if err != nil {
		return err
	}

	if !resp.Result.Success {
		return c.JSON(http.StatusPaymentRequired, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.OrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.SetStatus(ctx, id, req.Status, req.Notes)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Capture(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	resp, err := h.checkoutService.Capture(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// PaymentReceived records an offline payment, e.g. cash collected on delivery.
func (h *OrderHandler) PaymentReceived(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.PaymentReceivedRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.PaymentReceived(ctx, id, req.Method, req.TransactionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
