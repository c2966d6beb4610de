package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/authz"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settler interface {
	SettleSell(ctx context.Context, tx *gorm.DB, order *models.SellOrder, completedAt time.Time) ([]models.Transaction, error)
	SettleBuy(ctx context.Context, tx *gorm.DB, order *models.BuyOrder, completedAt time.Time) ([]models.Transaction, error)
}

type stockReader interface {
	Get(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error)
}

type configSource interface {
	Get(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error)
}

// Service drives both order lifecycles. Every transition is serialized by a
// status-guarded update, so a stale caller gets a state conflict instead of
// overwriting a newer transition.
type Service interface {
	CreateSell(ctx context.Context, input CreateSellInput) (*models.SellOrder, error)
	GetSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error)
	ListSell(ctx context.Context, actor Actor, input ListInput) (*SellOrderList, error)
	ApproveSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error)
	VerifyPayment(ctx context.Context, orderID uuid.UUID, actor Actor, journalRef string) (*models.SellOrder, error)
	CompleteSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error)
	RejectSell(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.SellOrder, error)
	CancelSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error)
	ValidateSellContractItem(ctx context.Context, orderID, itemID uuid.UUID, actor Actor, contractID int64) error

	CreateBuy(ctx context.Context, input CreateBuyInput) (*models.BuyOrder, error)
	GetBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error)
	ListBuy(ctx context.Context, actor Actor, input ListInput) (*BuyOrderList, error)
	ApproveBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error)
	CompleteBuy(ctx context.Context, orderID uuid.UUID, actor Actor, deliveryMethod *enums.DeliveryMethod) (*models.BuyOrder, error)
	RejectBuy(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.BuyOrder, error)
	CancelBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error)
	ValidateBuyContractItem(ctx context.Context, orderID, itemID uuid.UUID, actor Actor, contractID int64) error
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	settlement settler
	authz      authz.Checker
	configs    configSource
	stock      stockReader
}

// NewService builds the order lifecycle service with its collaborators.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, settlement settler, checker authz.Checker, configs configSource, stock stockReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if checker == nil {
		return nil, fmt.Errorf("authorization checker required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config source required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		outbox:     outboxSvc,
		settlement: settlement,
		authz:      checker,
		configs:    configs,
		stock:      stock,
	}, nil
}

func (s *service) requireManager(ctx context.Context, actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return authz.Require(ctx, s.authz, actor.UserID, enums.CapabilityManageMaterialExchange)
}

// activeConfig loads the corporation config and rejects inactive exchanges.
func (s *service) activeConfig(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error) {
	cfg, err := s.configs.Get(ctx, corporationID)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "exchange is not active for this corporation")
	}
	return cfg, nil
}

func invalidTransition(current, target string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order transition not allowed").
		WithDetails(map[string]any{"current": current, "target": target})
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range items {
		if item.TypeID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item type id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"type_id": item.TypeID})
		}
	}
	return nil
}

func eventActor(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:        actor.UserID,
		CorporationID: actor.CorporationID,
		Role:          actor.Role,
	}
}

// lookupEntry resolves a stock type for order creation, turning a missing
// entry into a validation failure rather than a not-found.
func (s *service) lookupEntry(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error) {
	entry, err := s.stock.Get(ctx, corporationID, typeID)
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown stock type").
				WithDetails(map[string]any{"type_id": typeID})
		}
		return nil, err
	}
	return entry, nil
}
