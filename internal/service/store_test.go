package service

import (
	"context"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInfoAndCountries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Satchmo Store", info.Name)
	assert.Equal(t, "US", info.Country)
	assert.Equal(t, "USD", info.Currency)

	countries, err := env.store.Countries(ctx)
	require.NoError(t, err)
	assert.Greater(t, len(countries), 1)

	testutil.Update(t, env.settings, livesettings.GroupShop, "IN_COUNTRY_ONLY", true)
	countries, err = env.store.Countries(ctx)
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "US", countries[0].ISO2)

	us, err := env.store.Country(ctx, "us")
	require.NoError(t, err)
	assert.NotEmpty(t, us.Areas)
}

func TestStoreGiftCertificateBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cert := &model.GiftCertificate{Code: "JAZZ-1234", Valid: true, StartBalance: testutil.Decimal("50")}
	require.NoError(t, env.repos.GiftCertificates.Create(ctx, cert))
	require.NoError(t, env.repos.GiftCertificates.Spend(ctx, &model.GiftCertificateUsage{
		GiftCertificateID: cert.ID, BalanceUsed: testutil.Decimal("12.50"),
	}))

	balance, err := env.store.GiftCertificateBalance(ctx, " jazz-1234 ")
	require.NoError(t, err)
	assert.True(t, balance.Valid)
	assert.True(t, testutil.Decimal("37.5").Equal(balance.Balance))
	assert.Equal(t, "$37.50", balance.BalanceDisplay)

	missing, err := env.store.GiftCertificateBalance(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, missing.Valid)
	assert.Equal(t, "NOPE", missing.Code)
}

func TestStoreSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groups := env.store.SettingGroups()
	require.NotEmpty(t, groups)
	assert.Equal(t, livesettings.GroupShop, groups[0].Key)

	values, err := env.store.UpdateSetting(ctx, "payment", "MINIMUM_ORDER", "5.00")
	require.NoError(t, err)
	assert.NotEmpty(t, values)

	minimum, err := env.payments.Minimum(ctx)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("5").Equal(minimum))

	_, err = env.store.ResetSetting(ctx, payment.Group, "MINIMUM_ORDER")
	require.NoError(t, err)
	minimum, err = env.payments.Minimum(ctx)
	require.NoError(t, err)
	assert.True(t, minimum.IsZero())
}
