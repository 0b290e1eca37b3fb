package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionType string

const (
	CommissionIcon     CommissionType = "icon"
	CommissionLogo     CommissionType = "logo"
	CommissionPoster   CommissionType = "poster"
	CommissionPortrait CommissionType = "portrait"
	CommissionOther    CommissionType = "other"
)

func (t CommissionType) Valid() bool {
	switch t {
	case CommissionIcon, CommissionLogo, CommissionPoster, CommissionPortrait, CommissionOther:
		return true
	}
	return false
}

type CommissionStatus string

const (
	CommissionPending    CommissionStatus = "pending"
	CommissionQuoted     CommissionStatus = "quoted"
	CommissionInProgress CommissionStatus = "in_progress"
	CommissionRevision   CommissionStatus = "revision"
	CommissionCompleted  CommissionStatus = "completed"
	CommissionCancelled  CommissionStatus = "cancelled"
)

type CommissionRequest struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	UserID         uint                `gorm:"not null;index" json:"user_id"`
	Title          string              `gorm:"type:varchar(200);not null" json:"title"`
	CommissionType CommissionType      `gorm:"type:varchar(20);not null;default:'other'" json:"commission_type"`
	Size           string              `gorm:"type:varchar(100)" json:"size"`
	Description    string              `gorm:"type:text;not null" json:"description"`
	EstimatedPrice decimal.NullDecimal `gorm:"type:decimal(9,2)" json:"estimated_price"`
	DepositPaid    bool                `gorm:"not null;default:false" json:"deposit_paid"`
	Status         CommissionStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ArtistNotes    string              `gorm:"type:text" json:"-"`
	FinalFile      string              `gorm:"type:varchar(255)" json:"final_file,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (CommissionRequest) TableName() string {
	return "commission_requests"
}
