package gateway

import (
	"net/http"

	"github.com/example/artshop/pkg/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type dashboardResponse struct {
	Orders      []models.Order             `json:"orders"`
	Commissions []models.CommissionRequest `json:"commissions"`
	Wishlist    []models.ArtPrint          `json:"wishlist"`
	Purchased   []models.ArtPrint          `json:"purchased"`
}

// @Summary Account dashboard
// @Tags account
// @Produce json
// @Success 200 {object} dashboardResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/account/dashboard [get]
func (g *Gateway) dashboard(c *gin.Context) {
	userID, _ := currentUser(c)

	var resp dashboardResponse
	eg, ctx := errgroup.WithContext(c.Request.Context())
	eg.Go(func() (err error) {
		resp.Orders, err = g.deps.Orders.ListCompletedByUser(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		resp.Commissions, err = g.deps.Commissions.List(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		resp.Wishlist, err = g.deps.Library.Wishlist(ctx, userID)
		return err
	})
	eg.Go(func() (err error) {
		resp.Purchased, err = g.deps.Library.Purchased(ctx, userID)
		return err
	})
	if err := eg.Wait(); err != nil {
		g.internalError(c, "Failed to load dashboard", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
