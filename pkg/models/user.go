package models

import (
	"time"
)

// User mirrors an account of the identity provider. The shop only reads it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254)" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_print" json:"user_id"`
	ArtPrintID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_print" json:"art_print_id"`
	ArtPrint   ArtPrint  `gorm:"constraint:OnDelete:CASCADE" json:"art_print"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// Entitlement records that a user bought a print and may download it.
type Entitlement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_entitlement_user_print" json:"user_id"`
	ArtPrintID uint      `gorm:"not null;uniqueIndex:idx_entitlement_user_print" json:"art_print_id"`
	ArtPrint   ArtPrint  `gorm:"constraint:OnDelete:CASCADE" json:"art_print"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Entitlement) TableName() string {
	return "entitlements"
}
