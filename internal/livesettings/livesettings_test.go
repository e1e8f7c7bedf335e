package livesettings

import (
	"context"
	"os"
	"path/filepath"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRegistry(t *testing.T) (*Registry, repository.SettingRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Setting{}, &model.LongSetting{}))

	repo := repository.NewSettingRepository(db)
	cache := keyedcache.New(keyedcache.NewMemoryBackend(), keyedcache.WithPrefix("test"))
	r := NewRegistry(repo, cache, zap.NewNop())

	r.RegisterGroup(Group{Key: "PAYMENT", Name: "Payment"})
	r.RegisterGroup(Group{Key: "PAYMENT_DUMMY", Name: "Dummy", Ordering: 5})
	require.NoError(t, r.Register(
		Value{Group: "PAYMENT", Key: "MODULES", Kind: KindMultipleString, Default: []string{"DUMMY"},
			Choices: []Choice{{Value: "DUMMY", Label: "Payment test module"}}},
		Value{Group: "PAYMENT", Key: "MINIMUM_ORDER", Kind: KindDecimal, Default: "0.00"},
		Value{Group: "PAYMENT", Key: "RETRIES", Kind: KindPositiveInteger, Default: 3},
		Value{Group: "PAYMENT_DUMMY", Key: "CAPTURE", Kind: KindBoolean, Default: true,
			Requires: &Requirement{Group: "PAYMENT", Key: "MODULES", Value: "DUMMY"}},
		Value{Group: "PAYMENT_DUMMY", Key: "SECRET", Kind: KindPassword},
		Value{Group: "PAYMENT_DUMMY", Key: "INTERNAL", Kind: KindString, Hidden: true},
	))
	return r, repo
}

func TestGetDefaults(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	modules, err := r.Strings(ctx, "PAYMENT", "MODULES")
	require.NoError(t, err)
	assert.Equal(t, []string{"DUMMY"}, modules)

	min, err := r.Decimal(ctx, "PAYMENT", "MINIMUM_ORDER")
	require.NoError(t, err)
	assert.True(t, min.IsZero())

	capture, err := r.Bool(ctx, "PAYMENT_DUMMY", "CAPTURE")
	require.NoError(t, err)
	assert.True(t, capture)

	secret, err := r.String(ctx, "PAYMENT_DUMMY", "SECRET")
	require.NoError(t, err)
	assert.Empty(t, secret)

	_, err = r.Get(ctx, "PAYMENT", "NOPE")
	assert.ErrorIs(t, err, ErrSettingNotSet)
}

func TestUpdate(t *testing.T) {
	r, repo := newTestRegistry(t)
	ctx := context.Background()

	// prime the cache so the update must invalidate it
	_, err := r.Int(ctx, "PAYMENT", "RETRIES")
	require.NoError(t, err)

	var seen []any
	v, err := r.Value("PAYMENT", "RETRIES")
	require.NoError(t, err)
	v.OnUpdate = func(old, new any) { seen = append(seen, old, new) }

	require.NoError(t, r.Update(ctx, "PAYMENT", "RETRIES", "5"))
	n, err := r.Int(ctx, "PAYMENT", "RETRIES")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []any{3, 5}, seen)

	raw, found, err := repo.Get(ctx, "PAYMENT", "RETRIES")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "5", raw)

	t.Run("rejects negative", func(t *testing.T) {
		assert.ErrorIs(t, r.Update(ctx, "PAYMENT", "RETRIES", "-1"), ErrInvalidValue)
	})

	t.Run("rejects unknown choice", func(t *testing.T) {
		assert.ErrorIs(t, r.Update(ctx, "PAYMENT", "MODULES", []string{"DUMMY", "BITCOIN"}), ErrInvalidChoice)
	})

	t.Run("decimal round trip", func(t *testing.T) {
		require.NoError(t, r.Update(ctx, "PAYMENT", "MINIMUM_ORDER", "12.50"))
		d, err := r.Decimal(ctx, "PAYMENT", "MINIMUM_ORDER")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("12.5").Equal(d))
	})

	t.Run("reset restores default", func(t *testing.T) {
		require.NoError(t, r.Reset(ctx, "PAYMENT", "RETRIES"))
		n, err := r.Int(ctx, "PAYMENT", "RETRIES")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestActiveAndChoices(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.AddChoice("PAYMENT", "MODULES", Choice{Value: "COD", Label: "Cash on delivery"}))

	active, err := r.Active(ctx, "PAYMENT_DUMMY", "CAPTURE")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, r.Update(ctx, "PAYMENT", "MODULES", "COD"))
	active, err = r.Active(ctx, "PAYMENT_DUMMY", "CAPTURE")
	require.NoError(t, err)
	assert.False(t, active)

	choices, err := r.ChoiceValues(ctx, "PAYMENT", "MODULES")
	require.NoError(t, err)
	assert.Equal(t, []Choice{{Value: "COD", Label: "Cash on delivery"}}, choices)
}

func TestGroupValues(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Update(ctx, "PAYMENT_DUMMY", "SECRET", "hunter2"))

	values, err := r.GroupValues(ctx, "PAYMENT_DUMMY")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "CAPTURE", values[0].Key)
	assert.Equal(t, "SECRET", values[1].Key)
	assert.Equal(t, maskedPassword, values[1].Value)

	groups := r.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "PAYMENT", groups[0].Key)

	_, err = r.GroupValues(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrSettingNotSet)
}

func TestLoadOverrides(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payment_dummy:\n  capture: false\npayment:\n  retries: 9\n  unknown: 1\n"), 0o600))
	require.NoError(t, r.LoadOverrides(path))

	capture, err := r.Bool(ctx, "PAYMENT_DUMMY", "CAPTURE")
	require.NoError(t, err)
	assert.False(t, capture)

	n, err := r.Int(ctx, "PAYMENT", "RETRIES")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	assert.ErrorIs(t, r.Update(ctx, "PAYMENT", "RETRIES", 4), ErrSettingLocked)

	values, err := r.GroupValues(ctx, "PAYMENT")
	require.NoError(t, err)
	for _, v := range values {
		if v.Key == "RETRIES" {
			assert.True(t, v.Locked)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := newTestRegistry(t)
	err := r.Register(Value{Group: "PAYMENT", Key: "MODULES", Kind: KindMultipleString})
	assert.ErrorIs(t, err, ErrDuplicateValue)

	err = r.Register(Value{Group: "MISSING", Key: "X", Kind: KindString})
	assert.ErrorIs(t, err, ErrSettingNotSet)
}

func TestRegisterShopSettings(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, RegisterShopSettings(r))

	code, err := r.String(context.Background(), GroupLanguage, "CURRENCY_CODE")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)
}
