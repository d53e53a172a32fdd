package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"keepfile/models"
)

// wrap turns an operation into a gin handler. Every error goes through
// respondError so the envelopes stay uniform.
func (h *KeepfileHandler) wrap(op func(c *gin.Context) (gin.H, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := op(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  false,
			"message": "Validation error",
			"errors":  ve.Fields,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  false,
			"message": "Keepfile not found",
		})
	default:
		logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  false,
			"message": "Server error, please try again later",
		})
	}
}

// keepfileResource is the list projection of a keepfile.
func keepfileResource(k models.Keepfile) gin.H {
	return gin.H{
		"id":         k.ID,
		"name":       k.Name,
		"image":      k.Image,
		"desc":       k.Desc,
		"created_at": k.CreatedAt,
		"updated_at": k.UpdatedAt,
	}
}
