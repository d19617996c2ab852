package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Healthz godoc
// @Summary      Health check
// @Description  Reports whether the database answers.
// @Tags         System
// @Produce      json
// @Success      200 {object} handler.HealthResponse
// @Failure      503 {object} handler.ErrorResponse
// @Router       /healthz [get]
func Healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
	}
}
