package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/slug"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CatalogRepository) CategoryBySlug(ctx context.Context, s string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", s).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListAvailable returns available prints, newest first. categoryID narrows the
// list when non-nil.
func (r *CatalogRepository) ListAvailable(ctx context.Context, categoryID *uint) ([]models.ArtPrint, error) {
	q := r.db.WithContext(ctx).Preload("Category").Where("is_available = ?", true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var prints []models.ArtPrint
	if err := q.Order("created_at DESC").Order("id DESC").Find(&prints).Error; err != nil {
		return nil, err
	}
	return prints, nil
}

func (r *CatalogRepository) GetBySlug(ctx context.Context, s string) (*models.ArtPrint, error) {
	var p models.ArtPrint
	if err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", s).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id uint) (*models.ArtPrint, error) {
	var p models.ArtPrint
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByIDs loads the prints that still exist among ids, keyed by id.
func (r *CatalogRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.ArtPrint, error) {
	out := make(map[uint]*models.ArtPrint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var prints []models.ArtPrint
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&prints).Error; err != nil {
		return nil, err
	}
	for i := range prints {
		out[prints[i].ID] = &prints[i]
	}
	return out, nil
}

// Related returns other available prints from the same category.
func (r *CatalogRepository) Related(ctx context.Context, p *models.ArtPrint, limit int) ([]models.ArtPrint, error) {
	if p.CategoryID == nil {
		return []models.ArtPrint{}, nil
	}

	var prints []models.ArtPrint
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_available = ? AND id <> ?", *p.CategoryID, true, p.ID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&prints).Error
	if err != nil {
		return nil, err
	}
	return prints, nil
}

func (r *CatalogRepository) SlugExists(ctx context.Context, s string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ArtPrint{}).Where("slug = ?", s).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CatalogRepository) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = models.Category{Name: name, Slug: slug.Make(name)}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &c, nil
}

func (r *CatalogRepository) CreatePrint(ctx context.Context, p *models.ArtPrint) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create print %q: %w", p.Slug, err)
	}
	return nil
}
