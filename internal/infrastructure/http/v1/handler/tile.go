package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vecmap/tilecore/internal/tilecoord"
	"github.com/vecmap/tilecore/pkg/logger"
)

// tileRequestTimeout bounds how long a single GET /tile/:z/:x/:y
// request waits for the loader before reporting "pending" rather than
// blocking the HTTP connection indefinitely.
const tileRequestTimeout = 10 * time.Second

// tileParams binds and validates the path params of GET
// /tile/:z/:x/:y. Gin's uri tag converts each segment to its field
// type (a non-integer segment fails binding before validate ever
// runs); the validate tag then enforces tilecoord.MaxZoom.
type tileParams struct {
	Z uint8  `uri:"z" validate:"lte=16"`
	X uint32 `uri:"x"`
	Y uint32 `uri:"y"`
}

func (h *Handler) Tile(c *gin.Context) {
	l := logger.FromContext(c.Request.Context())

	var params tileParams
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coord := tilecoord.New(params.Z, params.X, params.Y)

	ctx, cancel := context.WithTimeout(c.Request.Context(), tileRequestTimeout)
	defer cancel()

	result, err := h.tileUseCase.GetTile(ctx, coord)
	if err != nil {
		l.Error("tile request failed", "coord", coord.String(), "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	l.Info("tile request resolved", "coord", coord.String(), "state", result.State)
	h.RespondWithJSON(c, http.StatusOK, "got tile", result)
}
