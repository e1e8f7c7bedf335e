package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/middleware"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

func (h *AccountHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	contact, err := h.accountService.Register(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, contact)
}

func (h *AccountHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.accountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, token)
}

func (h *AccountHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	contact, err := h.accountService.Get(ctx, middleware.Contact(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contact)
}

func (h *AccountHandler) Addresses(c echo.Context) error {
	ctx := c.Request().Context()

	addresses, err := h.accountService.Addresses(ctx, middleware.Contact(c).ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *AccountHandler) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddressBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	entry, err := h.accountService.AddAddress(ctx, middleware.Contact(c).ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, entry)
}
