package models

import (
	"time"

	"github.com/example/artshop/pkg/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeSave(*gorm.DB) error {
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}

type ArtPrint struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Title          string          `gorm:"type:varchar(200);not null" json:"title"`
	Slug           string          `gorm:"type:varchar(250);uniqueIndex;not null" json:"slug"`
	Description    string          `gorm:"type:text" json:"description"`
	Image          string          `gorm:"type:varchar(255)" json:"image"`
	CategoryID     *uint           `gorm:"index" json:"category_id"`
	Category       *Category       `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Price          decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	SizeOptions    string          `gorm:"type:varchar(200)" json:"size_options"`
	IsAvailable    bool            `gorm:"not null;default:true" json:"is_available"`
	LimitedEdition *uint           `json:"limited_edition,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (ArtPrint) TableName() string {
	return "art_prints"
}

func (p *ArtPrint) BeforeSave(*gorm.DB) error {
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	return nil
}
