package gateway

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/example/artshop/pkg/commission"
	"github.com/example/artshop/pkg/repository"
	"github.com/gin-gonic/gin"
)

func commissionError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, commission.ErrInvalidCommission):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, commission.ErrNotEditable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "commission not found"})
	default:
		return false
	}
	return true
}

func bindCommission(c *gin.Context) (commission.Request, bool) {
	var req commission.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// @Summary Request a commission
// @Tags commissions
// @Accept json
// @Produce json
// @Param request body commission.Request true "Commission"
// @Success 201 {object} models.CommissionRequest
// @Failure 400 {object} map[string]string
// @Router /api/v1/commissions [post]
func (g *Gateway) createCommission(c *gin.Context) {
	req, ok := bindCommission(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	created, err := g.deps.Commissions.Create(c.Request.Context(), userID, req)
	if err != nil {
		if !commissionError(c, err) {
			g.internalError(c, "Failed to create commission", err)
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (g *Gateway) listCommissions(c *gin.Context) {
	userID, _ := currentUser(c)
	list, err := g.deps.Commissions.List(c.Request.Context(), userID)
	if err != nil {
		g.internalError(c, "Failed to list commissions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": list})
}

func (g *Gateway) getCommission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	found, err := g.deps.Commissions.Get(c.Request.Context(), userID, id)
	if err != nil {
		if !commissionError(c, err) {
			g.internalError(c, "Failed to load commission", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"commission": found,
		"editable":   commission.Editable(found.Status),
	})
}

func (g *Gateway) updateCommission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	req, ok := bindCommission(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	updated, err := g.deps.Commissions.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		if !commissionError(c, err) {
			g.internalError(c, "Failed to update commission", err)
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (g *Gateway) deleteCommission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	if err := g.deps.Commissions.Delete(c.Request.Context(), userID, id); err != nil {
		if !commissionError(c, err) {
			g.internalError(c, "Failed to delete commission", err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Estimate a commission price
// @Tags commissions
// @Accept json
// @Produce json
// @Param request body commission.Request true "Commission"
// @Success 200 {object} map[string]string
// @Router /api/v1/commissions/estimate [post]
func (g *Gateway) estimateCommission(c *gin.Context) {
	req, ok := bindCommission(c)
	if !ok {
		return
	}
	if !req.CommissionType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown commission type"})
		return
	}
	price := commission.EstimatePrice(req.CommissionType, req.Size, utf8.RuneCountInString(req.Description))
	c.JSON(http.StatusOK, gin.H{"estimated_price": price.StringFixed(2)})
}
