package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"strings"
)

// StoreService exposes store-wide configuration: the public store profile,
// countries, gift certificate balances and the editable settings.
type StoreService interface {
	Info(ctx context.Context) (*dto.StoreInfo, error)
	Countries(ctx context.Context) ([]model.Country, error)
	Country(ctx context.Context, iso2 string) (*model.Country, error)
	GiftCertificateBalance(ctx context.Context, code string) (*dto.GiftCertificateBalance, error)

	SettingGroups() []livesettings.Group
	SettingGroup(ctx context.Context, group string) ([]livesettings.Setting, error)
	UpdateSetting(ctx context.Context, group, key string, value any) ([]livesettings.Setting, error)
	ResetSetting(ctx context.Context, group, key string) ([]livesettings.Setting, error)
}

type storeServiceImpl struct {
	settings  *livesettings.Registry
	locations repository.LocationRepository
	certs     repository.GiftCertificateRepository
	money     *l10n.Formatter
}

func NewStoreService(
	settings *livesettings.Registry,
	locations repository.LocationRepository,
	certs repository.GiftCertificateRepository,
	money *l10n.Formatter,
) StoreService {
	return &storeServiceImpl{
		settings:  settings,
		locations: locations,
		certs:     certs,
		money:     money,
	}
}

func (s *storeServiceImpl) Info(ctx context.Context) (*dto.StoreInfo, error) {
	var (
		info dto.StoreInfo
		err  error
	)
	if info.Name, err = s.settings.String(ctx, livesettings.GroupShop, "NAME"); err != nil {
		return nil, err
	}
	if info.Email, err = s.settings.String(ctx, livesettings.GroupShop, "EMAIL"); err != nil {
		return nil, err
	}
	if info.Country, err = s.settings.String(ctx, livesettings.GroupShop, "COUNTRY"); err != nil {
		return nil, err
	}
	if info.InCountryOnly, err = s.settings.Bool(ctx, livesettings.GroupShop, "IN_COUNTRY_ONLY"); err != nil {
		return nil, err
	}
	if info.Currency, err = s.money.Currency(ctx); err != nil {
		return nil, err
	}
	return &info, nil
}

// Countries lists the active countries, or only the store country when
// SHOP.IN_COUNTRY_ONLY is set.
func (s *storeServiceImpl) Countries(ctx context.Context) ([]model.Country, error) {
	countries, err := s.locations.Countries(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	only, err := s.settings.Bool(ctx, livesettings.GroupShop, "IN_COUNTRY_ONLY")
	if err != nil || !only {
		return countries, err
	}

	home, err := s.settings.String(ctx, livesettings.GroupShop, "COUNTRY")
	if err != nil {
		return nil, err
	}
	for _, c := range countries {
		if strings.EqualFold(c.ISO2, home) {
			return []model.Country{c}, nil
		}
	}
	return nil, nil
}

func (s *storeServiceImpl) Country(ctx context.Context, iso2 string) (*model.Country, error) {
	return s.locations.FindCountry(ctx, strings.ToUpper(iso2))
}

func (s *storeServiceImpl) GiftCertificateBalance(ctx context.Context, code string) (*dto.GiftCertificateBalance, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	cert, err := s.certs.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.GiftCertificateBalance{Code: code}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find gift certificate: %w", err)
	}

	balance := cert.Balance()
	return &dto.GiftCertificateBalance{
		Code:           cert.Code,
		Valid:          cert.Valid,
		Balance:        balance,
		BalanceDisplay: formatMoney(ctx, s.money, balance),
	}, nil
}

func (s *storeServiceImpl) SettingGroups() []livesettings.Group {
	return s.settings.Groups()
}

func (s *storeServiceImpl) SettingGroup(ctx context.Context, group string) ([]livesettings.Setting, error) {
	return s.settings.GroupValues(ctx, strings.ToUpper(group))
}

func (s *storeServiceImpl) UpdateSetting(ctx context.Context, group, key string, value any) ([]livesettings.Setting, error) {
	group = strings.ToUpper(group)
	if err := s.settings.Update(ctx, group, key, value); err != nil {
		return nil, err
	}
	return s.settings.GroupValues(ctx, group)
}

func (s *storeServiceImpl) ResetSetting(ctx context.Context, group, key string) ([]livesettings.Setting, error) {
	group = strings.ToUpper(group)
	if err := s.settings.Reset(ctx, group, key); err != nil {
		return nil, err
	}
	return s.settings.GroupValues(ctx, group)
}
