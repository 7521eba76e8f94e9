package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/seed"
)

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	importer *seed.Importer
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(importer *seed.Importer) *SeedHandler {
	return &SeedHandler{importer: importer}
}

// SeedCatalogResponse represents the seed response.
type SeedCatalogResponse struct {
	Message string `json:"message"`
	seed.Result
}

// SeedCatalog godoc
// @Summary Import authors and books
// @Description Upserts authors by name and books by title within an author. Invalid entries are skipped.
// @Tags seed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body seed.Catalog true "Catalog"
// @Success 200 {object} SeedCatalogResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /seed/catalog [post]
func (h *SeedHandler) SeedCatalog(c echo.Context) error {
	var catalog seed.Catalog
	if err := bindRequest(c, &catalog); err != nil {
		return err
	}

	res, err := h.importer.Import(c.Request().Context(), &catalog)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SeedCatalogResponse{
		Message: "Catalog seeded successfully",
		Result:  res,
	})
}
