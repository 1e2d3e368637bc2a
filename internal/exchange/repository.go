package exchange

import (
	"context"

	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, req *models.ExchangeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// List returns requests newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ExchangeRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.ExchangeRequest{})
	var rows []models.ExchangeRequest
	err := q.Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error
	return rows, err
}
