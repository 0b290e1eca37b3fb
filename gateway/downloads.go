package gateway

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/example/artshop/pkg/checkout"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Download a purchased print
// @Tags downloads
// @Produce octet-stream
// @Param id path int true "Print ID"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/downloads/{id} [get]
func (g *Gateway) download(c *gin.Context) {
	printID, ok := paramID(c)
	if !ok {
		return
	}
	userID, _ := currentUser(c)

	p, err := g.deps.Downloads.Authorize(c.Request.Context(), userID, printID)
	switch {
	case errors.Is(err, checkout.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "You have not purchased this print."})
		return
	case errors.Is(err, checkout.ErrPrintNotFound), errors.Is(err, checkout.ErrFileUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case err != nil:
		g.internalError(c, "Failed to authorize download", err)
		return
	}

	path := filepath.Join(g.config.Server.MediaRoot, filepath.Clean("/"+p.Image))
	if _, err := os.Stat(path); err != nil {
		g.logger.Error("Print file missing", zap.Uint("print_id", p.ID), zap.String("path", path))
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.FileAttachment(path, checkout.DownloadName(p))
}
