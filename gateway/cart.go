package gateway

import (
	"errors"
	"net/http"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/repository"
	"github.com/gin-gonic/gin"
)

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type cartResponse struct {
	Items cart.Cart `json:"items"`
	Total string    `json:"total"`
	Count int       `json:"count"`
}

func newCartResponse(c cart.Cart) cartResponse {
	if c == nil {
		c = cart.Cart{}
	}
	return cartResponse{Items: c, Total: cart.Total(c).StringFixed(2), Count: cart.Count(c)}
}

func cartError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, cart.ErrUnavailableProduct):
		c.JSON(http.StatusConflict, gin.H{"error": "This print is currently unavailable."})
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "print not found"})
	default:
		return false
	}
	return true
}

// @Summary View cart
// @Tags cart
// @Produce json
// @Success 200 {object} cartResponse
// @Router /api/v1/cart [get]
func (g *Gateway) viewCart(c *gin.Context) {
	current, err := g.deps.Carts.Load(c.Request.Context(), sessionID(c))
	if err != nil {
		g.internalError(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(current))
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.deps.Carts.Clear(c.Request.Context(), sessionID(c)); err != nil {
		g.internalError(c, "Failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(nil))
}

// @Summary Add a print to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param id path int true "Print ID"
// @Success 200 {object} cartResponse
// @Failure 409 {object} map[string]string
// @Router /api/v1/cart/items/{id} [post]
func (g *Gateway) addToCart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	qty := 1
	if c.Request.ContentLength > 0 {
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Quantity != nil {
			qty = *req.Quantity
		}
	}

	ctx := c.Request.Context()
	p, err := g.deps.Catalog.GetByID(ctx, id)
	if err != nil {
		if !cartError(c, err) {
			g.internalError(c, "Failed to load print", err)
		}
		return
	}

	current, err := g.deps.Carts.Load(ctx, sessionID(c))
	if err != nil {
		g.internalError(c, "Failed to load cart", err)
		return
	}
	updated, err := cart.Add(current, p, qty)
	if err != nil {
		if !cartError(c, err) {
			g.internalError(c, "Failed to add to cart", err)
		}
		return
	}
	if err := g.deps.Carts.Save(ctx, sessionID(c), updated); err != nil {
		g.internalError(c, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(updated))
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	ctx := c.Request.Context()
	current, err := g.deps.Carts.Load(ctx, sessionID(c))
	if err != nil {
		g.internalError(c, "Failed to load cart", err)
		return
	}
	updated, err := cart.UpdateQuantity(current, id, *req.Quantity)
	if err != nil {
		if !cartError(c, err) {
			g.internalError(c, "Failed to update cart", err)
		}
		return
	}
	if err := g.deps.Carts.Save(ctx, sessionID(c), updated); err != nil {
		g.internalError(c, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(updated))
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	current, err := g.deps.Carts.Load(ctx, sessionID(c))
	if err != nil {
		g.internalError(c, "Failed to load cart", err)
		return
	}
	updated := cart.Remove(current, id)
	if err := g.deps.Carts.Save(ctx, sessionID(c), updated); err != nil {
		g.internalError(c, "Failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(updated))
}
