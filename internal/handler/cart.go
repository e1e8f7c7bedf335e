package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/middleware"
	"satchmo-store/internal/model"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) respond(c echo.Context, status int, cart *model.Cart) error {
	summary, err := h.cartService.Summary(c.Request().Context(), cart, middleware.Contact(c))
	if err != nil {
		return err
	}
	return c.JSON(status, summary)
}

func (h *CartHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.Create(ctx, middleware.Contact(c))
	if err != nil {
		return err
	}

	return h.respond(c, http.StatusCreated, cart)
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.Get(ctx, c.Param("key"))
	if err != nil {
		return err
	}

	return h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cart, err := h.cartService.AddItem(ctx, c.Param("key"), req.ProductID, req.Quantity, middleware.Contact(c))
	if err != nil {
		return err
	}

	return h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productID")
	if err != nil {
		return err
	}
	var req dto.CartQuantityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cart, err := h.cartService.SetQuantity(ctx, c.Param("key"), productID, req.Quantity)
	if err != nil {
		return err
	}

	return h.respond(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := idParam(c, "productID")
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(ctx, c.Param("key"), productID)
	if err != nil {
		return err
	}

	return h.respond(c, http.StatusOK, cart)
}
