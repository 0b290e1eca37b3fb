package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/artshop/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreatePending stores a new pending order together with its items.
func (r *OrderRepository) CreatePending(ctx context.Context, order *models.Order) error {
	order.Status = models.OrderStatusPending
	order.IsCompleted = false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// MarkPaid performs the single pending to paid transition for the order bound
// to sessionID. It reports the order (nil when none exists) and whether this
// call performed the transition. Entitlements for every purchased print are
// granted in the same transaction.
func (r *OrderRepository) MarkPaid(ctx context.Context, sessionID string) (*models.Order, bool, error) {
	var (
		order        models.Order
		transitioned bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Items.ArtPrint").Preload("User").
			Where("stripe_session_id = ?", sessionID).
			Order("id").
			First(&order).Error
		if err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND is_completed = ?", order.ID, false).
			Updates(map[string]interface{}{
				"is_completed": true,
				"status":       string(models.OrderStatusPaid),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		transitioned = true
		order.IsCompleted = true
		order.Status = models.OrderStatusPaid

		if order.UserID == nil {
			return nil
		}
		grants := make([]models.Entitlement, 0, len(order.Items))
		for _, item := range order.Items {
			if item.ArtPrintID == nil {
				continue
			}
			grants = append(grants, models.Entitlement{
				UserID:     *order.UserID,
				ArtPrintID: *item.ArtPrintID,
				OrderID:    order.ID,
			})
		}
		if len(grants) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&grants).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to confirm order: %w", err)
	}
	return &order, transitioned, nil
}

func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("stripe_session_id = ?", sessionID).
		Order("id").
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// ListCompletedByUser returns paid orders of a user, newest first.
func (r *OrderRepository) ListCompletedByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items.ArtPrint").
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
