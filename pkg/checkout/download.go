package checkout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/repository"
	"go.uber.org/zap"
)

type DownloadGate struct {
	catalog      Catalog
	entitlements Entitlements
	logger       *zap.Logger
}

func NewDownloadGate(catalog Catalog, entitlements Entitlements, logger *zap.Logger) *DownloadGate {
	return &DownloadGate{catalog: catalog, entitlements: entitlements, logger: logger}
}

// Authorize returns the print userID may download. Access requires an
// entitlement created by a confirmed order.
func (g *DownloadGate) Authorize(ctx context.Context, userID, printID uint) (*models.ArtPrint, error) {
	p, err := g.catalog.GetByID(ctx, printID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPrintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load print: %w", err)
	}

	ok, err := g.entitlements.HasEntitlement(ctx, userID, printID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !ok {
		g.logger.Info("Download denied", zap.Uint("user_id", userID), zap.Uint("print_id", printID))
		return nil, ErrAccessDenied
	}

	if p.Image == "" {
		return nil, ErrFileUnavailable
	}
	return p, nil
}

// DownloadName is the attachment filename offered for a print.
func DownloadName(p *models.ArtPrint) string {
	return p.Slug + "-highres" + filepath.Ext(p.Image)
}
