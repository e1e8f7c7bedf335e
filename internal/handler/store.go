package handler

import (
	"net/http"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type StoreHandler struct {
	storeService service.StoreService
	checkService service.CheckService
}

func NewStoreHandler(storeService service.StoreService, checkService service.CheckService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		checkService: checkService,
	}
}

func (h *StoreHandler) Info(c echo.Context) error {
	ctx := c.Request().Context()

	info, err := h.storeService.Info(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, info)
}

func (h *StoreHandler) Countries(c echo.Context) error {
	ctx := c.Request().Context()

	countries, err := h.storeService.Countries(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, countries)
}

func (h *StoreHandler) Country(c echo.Context) error {
	ctx := c.Request().Context()

	country, err := h.storeService.Country(ctx, c.Param("iso2"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, country)
}

func (h *StoreHandler) GiftCertificate(c echo.Context) error {
	ctx := c.Request().Context()

	balance, err := h.storeService.GiftCertificateBalance(ctx, c.Param("code"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balance)
}

func (h *StoreHandler) SettingGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, h.storeService.SettingGroups())
}

func (h *StoreHandler) SettingGroup(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.storeService.SettingGroup(ctx, c.Param("group"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *StoreHandler) UpdateSetting(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SettingUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	settings, err := h.storeService.UpdateSetting(ctx, c.Param("group"), c.Param("key"), req.Value)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

func (h *StoreHandler) ResetSetting(c echo.Context) error {
	ctx := c.Request().Context()

	settings, err := h.storeService.ResetSetting(ctx, c.Param("group"), c.Param("key"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, settings)
}

// Health runs the store self-checks and answers 503 when any of them fails.
func (h *StoreHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	results := h.checkService.Run(ctx)
	status := http.StatusOK
	for _, r := range results {
		if !r.OK {
			status = http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(status, results)
}
