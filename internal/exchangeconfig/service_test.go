package exchangeconfig

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
)

type fakeRepo struct {
	configs     map[int64]*models.ExchangeConfig
	lastUpdates map[string]any
	updateErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{configs: map[int64]*models.ExchangeConfig{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByCorporation(_ context.Context, corporationID int64) (*models.ExchangeConfig, error) {
	cfg, ok := f.configs[corporationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (f *fakeRepo) ListActive(context.Context) ([]models.ExchangeConfig, error) {
	var out []models.ExchangeConfig
	for _, cfg := range f.configs {
		if cfg.IsActive {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, cfg *models.ExchangeConfig) (*models.ExchangeConfig, error) {
	f.configs[cfg.CorporationID] = cfg
	return cfg, nil
}

func (f *fakeRepo) Update(_ context.Context, corporationID int64, updates map[string]any) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	cfg, ok := f.configs[corporationID]
	if !ok {
		return 0, nil
	}
	f.lastUpdates = updates
	if v, ok := updates["hangar_division"].(int); ok {
		cfg.HangarDivision = v
	}
	if v, ok := updates["sell_markup_percent"].(decimal.Decimal); ok {
		cfg.SellMarkupPercent = v
	}
	if v, ok := updates["require_contract_validation"].(bool); ok {
		cfg.RequireContractValidation = v
	}
	if v, ok := updates["is_active"].(bool); ok {
		cfg.IsActive = v
	}
	return 1, nil
}

func (f *fakeRepo) StampPriceSync(_ context.Context, corporationID int64, at time.Time) error {
	if cfg, ok := f.configs[corporationID]; ok {
		cfg.LastPriceSyncAt = &at
	}
	return nil
}

func (f *fakeRepo) StampStockSync(_ context.Context, corporationID int64, at time.Time) error {
	if cfg, ok := f.configs[corporationID]; ok {
		cfg.LastStockSyncAt = &at
	}
	return nil
}

func seedConfig(repo *fakeRepo, corporationID int64, active bool) *models.ExchangeConfig {
	cfg := &models.ExchangeConfig{
		CorporationID:     corporationID,
		HangarDivision:    1,
		SellMarkupPercent: decimal.RequireFromString("10"),
		BuyMarkupPercent:  decimal.RequireFromString("5"),
		IsActive:          active,
	}
	repo.configs[corporationID] = cfg
	return cfg
}

func TestGetNotFound(t *testing.T) {
	svc, err := NewService(newFakeRepo())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 98000001)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateValidatesHangarDivision(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, true)
	svc, err := NewService(repo)
	require.NoError(t, err)

	bad := 8
	_, err = svc.Update(context.Background(), 98000001, UpdateInput{HangarDivision: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateRejectsNegativeMarkup(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, true)
	svc, err := NewService(repo)
	require.NoError(t, err)

	negative := decimal.RequireFromString("-1")
	_, err = svc.Update(context.Background(), 98000001, UpdateInput{SellMarkupPercent: &negative})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateRejectsEmptyInput(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, true)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 98000001, UpdateInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateAppliesFields(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, true)
	svc, err := NewService(repo)
	require.NoError(t, err)

	division := 4
	requireValidation := true
	updated, err := svc.Update(context.Background(), 98000001, UpdateInput{
		HangarDivision:            &division,
		RequireContractValidation: &requireValidation,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.HangarDivision)
	assert.True(t, updated.RequireContractValidation)
	assert.Contains(t, repo.lastUpdates, "hangar_division")
	assert.NotContains(t, repo.lastUpdates, "sell_markup_percent")
}

func TestMarkupRequiresActiveConfig(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, false)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Markup(context.Background(), 98000001)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestMarkupReturnsConfigValues(t *testing.T) {
	repo := newFakeRepo()
	seedConfig(repo, 98000001, true)
	svc, err := NewService(repo)
	require.NoError(t, err)

	markup, err := svc.Markup(context.Background(), 98000001)
	require.NoError(t, err)
	assert.True(t, markup.SellMarkupPercent.Equal(decimal.RequireFromString("10")))
	assert.True(t, markup.BuyMarkupPercent.Equal(decimal.RequireFromString("5")))
}
