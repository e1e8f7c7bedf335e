package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/middleware"
	"satchmo-store/internal/service"
	"strconv"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.ProductQuery
	if err := bind(c, &query); err != nil {
		return err
	}

	page, err := h.productService.Search(ctx, query, middleware.Contact(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	qty := 1
	if raw := c.QueryParam("qty"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid qty")
		}
		qty = n
	}

	detail, err := h.productService.Detail(ctx, c.Param("slug"), qty, middleware.Contact(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, detail)
}

func (h *ProductHandler) Categories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.productService.Categories(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, categories)
}
