package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

// SellOrderFilters narrows sell order listings.
type SellOrderFilters struct {
	Status       *enums.SellOrderStatus
	SellerUserID *uuid.UUID
}

// BuyOrderFilters narrows buy order listings.
type BuyOrderFilters struct {
	Status      *enums.BuyOrderStatus
	BuyerUserID *uuid.UUID
}

// Repository defines persistence operations for the order tables. Status
// transitions go through the guarded update methods; RowsAffected tells the
// caller whether the expected prior state still held.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSellOrder(ctx context.Context, order *models.SellOrder) (*models.SellOrder, error)
	FindSellOrder(ctx context.Context, orderID uuid.UUID) (*models.SellOrder, error)
	ListSellOrders(ctx context.Context, corporationID int64, params pagination.Params, filters SellOrderFilters) ([]models.SellOrder, error)
	UpdateSellOrderStatus(ctx context.Context, orderID uuid.UUID, from []enums.SellOrderStatus, to enums.SellOrderStatus, updates map[string]any) (int64, error)
	FindSellOrderItem(ctx context.Context, itemID uuid.UUID) (*models.SellOrderItem, error)
	UpdateSellOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error

	CreateBuyOrder(ctx context.Context, order *models.BuyOrder) (*models.BuyOrder, error)
	FindBuyOrder(ctx context.Context, orderID uuid.UUID) (*models.BuyOrder, error)
	ListBuyOrders(ctx context.Context, corporationID int64, params pagination.Params, filters BuyOrderFilters) ([]models.BuyOrder, error)
	UpdateBuyOrderStatus(ctx context.Context, orderID uuid.UUID, from []enums.BuyOrderStatus, to enums.BuyOrderStatus, updates map[string]any) (int64, error)
	FindBuyOrderItem(ctx context.Context, itemID uuid.UUID) (*models.BuyOrderItem, error)
	UpdateBuyOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
}
