package gateway

import (
	"errors"
	"net/http"

	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/repository"
	"github.com/gin-gonic/gin"
)

const relatedPrints = 4

// @Summary Gallery
// @Tags gallery
// @Produce json
// @Param category query string false "Category slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/v1/gallery [get]
func (g *Gateway) listGallery(c *gin.Context) {
	ctx := c.Request.Context()

	var categoryID *uint
	var selected *models.Category
	if s := c.Query("category"); s != "" {
		category, err := g.deps.Catalog.CategoryBySlug(ctx, s)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		if err != nil {
			g.internalError(c, "Failed to load category", err)
			return
		}
		categoryID = &category.ID
		selected = category
	}

	prints, err := g.deps.Catalog.ListAvailable(ctx, categoryID)
	if err != nil {
		g.internalError(c, "Failed to list prints", err)
		return
	}
	categories, err := g.deps.Catalog.Categories(ctx)
	if err != nil {
		g.internalError(c, "Failed to list categories", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prints":            prints,
		"categories":        categories,
		"selected_category": selected,
	})
}

// @Summary Print detail
// @Tags gallery
// @Produce json
// @Param slug path string true "Print slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/v1/gallery/prints/{slug} [get]
func (g *Gateway) printDetail(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := g.deps.Catalog.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "print not found"})
		return
	}
	if err != nil {
		g.internalError(c, "Failed to load print", err)
		return
	}

	related, err := g.deps.Catalog.Related(ctx, p, relatedPrints)
	if err != nil {
		g.internalError(c, "Failed to load related prints", err)
		return
	}

	inWishlist := false
	if userID, ok := currentUser(c); ok {
		if inWishlist, err = g.deps.Library.InWishlist(ctx, userID, p.ID); err != nil {
			g.internalError(c, "Failed to check wishlist", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"print":       p,
		"related":     related,
		"in_wishlist": inWishlist,
	})
}

func (g *Gateway) addToWishlist(c *gin.Context) {
	g.changeWishlist(c, true)
}

func (g *Gateway) removeFromWishlist(c *gin.Context) {
	g.changeWishlist(c, false)
}

func (g *Gateway) changeWishlist(c *gin.Context, add bool) {
	ctx := c.Request.Context()
	userID, _ := currentUser(c)

	p, err := g.deps.Catalog.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "print not found"})
		return
	}
	if err != nil {
		g.internalError(c, "Failed to load print", err)
		return
	}

	if add {
		err = g.deps.Library.AddToWishlist(ctx, userID, p.ID)
	} else {
		err = g.deps.Library.RemoveFromWishlist(ctx, userID, p.ID)
	}
	if err != nil {
		g.internalError(c, "Failed to update wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_wishlist": add, "slug": p.Slug})
}
