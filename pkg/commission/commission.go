// Package commission manages custom artwork requests.
package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/artshop/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotEditable       = errors.New("this commission can no longer be changed")
	ErrInvalidCommission = errors.New("invalid commission request")
)

const (
	maxTitleLength  = 200
	maxSizeLength   = 100
	longDescription = 300
	portraitBase    = 120
	defaultBase     = 80
)

// EstimatePrice is the server-side quote for a request.
func EstimatePrice(t models.CommissionType, size string, descriptionLength int) decimal.Decimal {
	price := decimal.NewFromInt(defaultBase)
	if t == models.CommissionPortrait {
		price = decimal.NewFromInt(portraitBase)
	}

	lower := strings.ToLower(size)
	if strings.Contains(lower, "large") || strings.Contains(lower, "a3") {
		price = price.Mul(decimal.NewFromInt(2))
	}
	if descriptionLength > longDescription {
		price = price.Mul(decimal.NewFromFloat(1.5))
	}
	return price.Round(2)
}

// Editable reports whether the owner may still change or withdraw a request.
func Editable(s models.CommissionStatus) bool {
	switch s {
	case models.CommissionPending, models.CommissionQuoted, models.CommissionRevision:
		return true
	}
	return false
}

type Request struct {
	Title          string                `json:"title"`
	CommissionType models.CommissionType `json:"commission_type"`
	Size           string                `json:"size"`
	Description    string                `json:"description"`
}

func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidCommission)
	case utf8.RuneCountInString(r.Title) > maxTitleLength:
		return fmt.Errorf("%w: title is too long", ErrInvalidCommission)
	case !r.CommissionType.Valid():
		return fmt.Errorf("%w: unknown commission type %q", ErrInvalidCommission, r.CommissionType)
	case utf8.RuneCountInString(r.Size) > maxSizeLength:
		return fmt.Errorf("%w: size is too long", ErrInvalidCommission)
	case strings.TrimSpace(r.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidCommission)
	}
	return nil
}

func (r Request) estimate() decimal.Decimal {
	return EstimatePrice(r.CommissionType, r.Size, utf8.RuneCountInString(r.Description))
}

type Repository interface {
	Create(ctx context.Context, c *models.CommissionRequest) error
	ListByUser(ctx context.Context, userID uint) ([]models.CommissionRequest, error)
	GetForUser(ctx context.Context, userID, id uint) (*models.CommissionRequest, error)
	Save(ctx context.Context, c *models.CommissionRequest) error
	Delete(ctx context.Context, c *models.CommissionRequest) error
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, userID uint, req Request) (*models.CommissionRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := &models.CommissionRequest{
		UserID:         userID,
		Title:          req.Title,
		CommissionType: req.CommissionType,
		Size:           req.Size,
		Description:    req.Description,
		EstimatedPrice: decimal.NewNullDecimal(req.estimate()),
		Status:         models.CommissionPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create commission: %w", err)
	}

	s.logger.Info("Commission requested",
		zap.Uint("commission_id", c.ID),
		zap.Uint("user_id", userID),
		zap.String("estimate", c.EstimatedPrice.Decimal.StringFixed(2)))
	return c, nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.CommissionRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id uint) (*models.CommissionRequest, error) {
	return s.repo.GetForUser(ctx, userID, id)
}

// Update replaces the request fields and recomputes the estimate.
func (s *Service) Update(ctx context.Context, userID, id uint, req Request) (*models.CommissionRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !Editable(c.Status) {
		return nil, ErrNotEditable
	}

	c.Title = req.Title
	c.CommissionType = req.CommissionType
	c.Size = req.Size
	c.Description = req.Description
	c.EstimatedPrice = decimal.NewNullDecimal(req.estimate())
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update commission: %w", err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	c, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if !Editable(c.Status) {
		return ErrNotEditable
	}
	if err := s.repo.Delete(ctx, c); err != nil {
		return fmt.Errorf("failed to delete commission: %w", err)
	}
	s.logger.Info("Commission withdrawn", zap.Uint("commission_id", id), zap.Uint("user_id", userID))
	return nil
}
