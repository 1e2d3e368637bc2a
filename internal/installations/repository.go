package installations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/pkg/db/models"
	"github.com/luxemarket/storefront-backend/pkg/enums"
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

func (r *Repository) Create(ctx context.Context, req *models.InstallationRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InstallationRequest, error) {
	var row models.InstallationRequest
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns every request the user made, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.InstallationRequest, error) {
	var rows []models.InstallationRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) List(ctx context.Context, status *enums.InstallationStatus, cursor *pagination.Cursor, limit int) ([]models.InstallationRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.InstallationRequest{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.InstallationRequest
	err := q.Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InstallationStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.InstallationRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
