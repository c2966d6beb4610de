package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

// ListInput carries transaction listing parameters.
type ListInput struct {
	Limit  int
	Cursor string
	TypeID *int64
}

// List is one page of settlement records, newest first.
type List struct {
	Transactions []models.Transaction
	NextCursor   string
}

// Service reads the immutable settlement history.
type Service interface {
	ListOwn(ctx context.Context, corporationID int64, userID uuid.UUID, input ListInput) (*List, error)
	ListAll(ctx context.Context, corporationID int64, input ListInput) (*List, error)
}

type service struct {
	repo Repository
}

// NewService builds the transactions read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListOwn(ctx context.Context, corporationID int64, userID uuid.UUID, input ListInput) (*List, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.list(ctx, corporationID, input, Filters{UserID: &userID, TypeID: input.TypeID})
}

func (s *service) ListAll(ctx context.Context, corporationID int64, input ListInput) (*List, error) {
	return s.list(ctx, corporationID, input, Filters{TypeID: input.TypeID})
}

func (s *service) list(ctx context.Context, corporationID int64, input ListInput, filters Filters) (*List, error) {
	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	rows, err := s.repo.List(ctx, corporationID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &List{Transactions: rows}
	if len(rows) > limit {
		result.Transactions = rows[:limit]
		last := result.Transactions[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
