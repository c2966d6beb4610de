package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSellOrder(ctx context.Context, order *models.SellOrder) (*models.SellOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindSellOrder(ctx context.Context, orderID uuid.UUID) (*models.SellOrder, error) {
	var order models.SellOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListSellOrders(ctx context.Context, corporationID int64, params pagination.Params, filters SellOrderFilters) ([]models.SellOrder, error) {
	query := r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.SellerUserID != nil {
		query = query.Where("seller_user_id = ?", *filters.SellerUserID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.SellOrder
	err = query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateSellOrderStatus transitions an order only when its current status is
// one of the expected prior states. RowsAffected 0 means the order was gone
// or already past the expected state.
func (r *repository) UpdateSellOrderStatus(ctx context.Context, orderID uuid.UUID, from []enums.SellOrderStatus, to enums.SellOrderStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.SellOrder{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) FindSellOrderItem(ctx context.Context, itemID uuid.UUID) (*models.SellOrderItem, error) {
	var item models.SellOrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateSellOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SellOrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) CreateBuyOrder(ctx context.Context, order *models.BuyOrder) (*models.BuyOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindBuyOrder(ctx context.Context, orderID uuid.UUID) (*models.BuyOrder, error) {
	var order models.BuyOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListBuyOrders(ctx context.Context, corporationID int64, params pagination.Params, filters BuyOrderFilters) ([]models.BuyOrder, error) {
	query := r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.BuyerUserID != nil {
		query = query.Where("buyer_user_id = ?", *filters.BuyerUserID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.BuyOrder
	err = query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateBuyOrderStatus mirrors UpdateSellOrderStatus for the buy side.
func (r *repository) UpdateBuyOrderStatus(ctx context.Context, orderID uuid.UUID, from []enums.BuyOrderStatus, to enums.BuyOrderStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.BuyOrder{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) FindBuyOrderItem(ctx context.Context, itemID uuid.UUID) (*models.BuyOrderItem, error) {
	var item models.BuyOrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateBuyOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.BuyOrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}
