package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pedbook/internal/cache"
	"pedbook/internal/db"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(gormDB *gorm.DB, cacheClient *cache.Client) *HealthHandler {
	return &HealthHandler{db: gormDB, cache: cacheClient}
}

// ReadyResponse reports dependency status.
type ReadyResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Live godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready godoc
// @Summary Readiness probe
// @Description Fails only when the database is unreachable; the cache is optional.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /readyz [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Database: "ok", Cache: "ok"}
	status := http.StatusOK
	if err := db.Ping(ctx, h.db); err != nil {
		log.Printf("readiness: database: %v", err)
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		resp.Cache = "unavailable"
	}
	return c.JSON(status, resp)
}
