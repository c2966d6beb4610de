package orders

import (
	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
)

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID        uuid.UUID
	CorporationID int64
	Role          string
}

// ItemInput is one requested line of an order being created.
type ItemInput struct {
	TypeID   int64
	Quantity int64
}

// CreateSellInput carries everything needed to open a sell order.
type CreateSellInput struct {
	Actor Actor
	Items []ItemInput
	Notes *string
}

// CreateBuyInput carries everything needed to open a buy order.
type CreateBuyInput struct {
	Actor          Actor
	Items          []ItemInput
	DeliveryMethod *enums.DeliveryMethod
	Notes          *string
}

// ListInput carries order listing parameters. Own restricts results to the
// acting user's orders regardless of capability.
type ListInput struct {
	Limit  int
	Cursor string
	Status string
	Own    bool
}

// SellOrderList is one page of sell orders, newest first.
type SellOrderList struct {
	Orders     []models.SellOrder
	NextCursor string
}

// BuyOrderList is one page of buy orders, newest first.
type BuyOrderList struct {
	Orders     []models.BuyOrder
	NextCursor string
}
