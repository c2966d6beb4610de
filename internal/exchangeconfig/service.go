package exchangeconfig

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/pricing"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
)

// UpdateInput carries a partial config update; nil fields are left unchanged.
type UpdateInput struct {
	StructureID               *int64
	StructureName             *string
	HangarDivision            *int
	SellMarkupPercent         *decimal.Decimal
	SellMarkupBase            *decimal.Decimal
	BuyMarkupPercent          *decimal.Decimal
	BuyMarkupBase             *decimal.Decimal
	RequireContractValidation *bool
	IsActive                  *bool
}

// Service exposes per-corporation exchange configuration.
type Service interface {
	Get(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error)
	Update(ctx context.Context, corporationID int64, input UpdateInput) (*models.ExchangeConfig, error)
	ListActive(ctx context.Context) ([]models.ExchangeConfig, error)
	Markup(ctx context.Context, corporationID int64) (pricing.MarkupConfig, error)
}

type service struct {
	repo Repository
}

// NewService builds the exchange config service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("exchange config repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error) {
	cfg, err := s.repo.FindByCorporation(ctx, corporationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "exchange config not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange config")
	}
	return cfg, nil
}

func (s *service) Update(ctx context.Context, corporationID int64, input UpdateInput) (*models.ExchangeConfig, error) {
	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no config fields to update")
	}

	affected, err := s.repo.Update(ctx, corporationID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update exchange config")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "exchange config not found")
	}
	return s.Get(ctx, corporationID)
}

func (s *service) ListActive(ctx context.Context) ([]models.ExchangeConfig, error) {
	configs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active configs")
	}
	return configs, nil
}

// Markup loads the markup knobs for an active corporation config.
func (s *service) Markup(ctx context.Context, corporationID int64) (pricing.MarkupConfig, error) {
	cfg, err := s.Get(ctx, corporationID)
	if err != nil {
		return pricing.MarkupConfig{}, err
	}
	if !cfg.IsActive {
		return pricing.MarkupConfig{}, pkgerrors.New(pkgerrors.CodeStateConflict, "exchange is not active for this corporation")
	}
	return pricing.FromExchangeConfig(*cfg), nil
}

func buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.StructureID != nil {
		updates["structure_id"] = *input.StructureID
	}
	if input.StructureName != nil {
		updates["structure_name"] = *input.StructureName
	}
	if input.HangarDivision != nil {
		if *input.HangarDivision < 1 || *input.HangarDivision > 7 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hangar division must be between 1 and 7")
		}
		updates["hangar_division"] = *input.HangarDivision
	}
	for column, value := range map[string]*decimal.Decimal{
		"sell_markup_percent": input.SellMarkupPercent,
		"sell_markup_base":    input.SellMarkupBase,
		"buy_markup_percent":  input.BuyMarkupPercent,
		"buy_markup_base":     input.BuyMarkupBase,
	} {
		if value == nil {
			continue
		}
		if value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "markup values must be non-negative")
		}
		updates[column] = *value
	}
	if input.RequireContractValidation != nil {
		updates["require_contract_validation"] = *input.RequireContractValidation
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return updates, nil
}
