package repository

import (
	"context"

	"github.com/example/artshop/pkg/models"
	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) Create(ctx context.Context, c *models.CommissionRequest) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CommissionRepository) ListByUser(ctx context.Context, userID uint) ([]models.CommissionRequest, error) {
	var out []models.CommissionRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetForUser hides other users' commissions behind ErrNotFound.
func (r *CommissionRepository) GetForUser(ctx context.Context, userID, id uint) (*models.CommissionRequest, error) {
	var c models.CommissionRequest
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CommissionRepository) Save(ctx context.Context, c *models.CommissionRequest) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CommissionRepository) Delete(ctx context.Context, c *models.CommissionRequest) error {
	return r.db.WithContext(ctx).Delete(c).Error
}
