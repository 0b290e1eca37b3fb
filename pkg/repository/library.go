package repository

import (
	"context"

	"github.com/example/artshop/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryRepository covers the per-user print relations: wishlist and
// purchased prints.
type LibraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

func (r *LibraryRepository) HasEntitlement(ctx context.Context, userID, printID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Entitlement{}).
		Where("user_id = ? AND art_print_id = ?", userID, printID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *LibraryRepository) Purchased(ctx context.Context, userID uint) ([]models.ArtPrint, error) {
	var grants []models.Entitlement
	err := r.db.WithContext(ctx).Preload("ArtPrint").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}

	prints := make([]models.ArtPrint, 0, len(grants))
	for _, g := range grants {
		prints = append(prints, g.ArtPrint)
	}
	return prints, nil
}

func (r *LibraryRepository) AddToWishlist(ctx context.Context, userID, printID uint) error {
	item := models.WishlistItem{UserID: userID, ArtPrintID: printID}
	return r.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item).Error
}

func (r *LibraryRepository) RemoveFromWishlist(ctx context.Context, userID, printID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND art_print_id = ?", userID, printID).
		Delete(&models.WishlistItem{}).Error
}

func (r *LibraryRepository) InWishlist(ctx context.Context, userID, printID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND art_print_id = ?", userID, printID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *LibraryRepository) Wishlist(ctx context.Context, userID uint) ([]models.ArtPrint, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).Preload("ArtPrint").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	prints := make([]models.ArtPrint, 0, len(items))
	for _, it := range items {
		prints = append(prints, it.ArtPrint)
	}
	return prints, nil
}
