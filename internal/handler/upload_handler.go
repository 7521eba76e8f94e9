package handler

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"pedbook/internal/storage"
)

// UploadHandler serves stored images.
type UploadHandler struct {
	disk *storage.Disk
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(disk *storage.Disk) *UploadHandler {
	return &UploadHandler{disk: disk}
}

// ServeUpload godoc
// @Summary Serve an uploaded image
// @Description Falls back to a similarly named file, then to the placeholder image.
// @Tags uploads
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param path path string true "Relative path, e.g. books/dune-1a2b3c4d.jpg"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /uploads/{path} [get]
func (h *UploadHandler) ServeUpload(c echo.Context) error {
	rel, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return badRequest("invalid path", "INVALID_PATH")
	}

	path, err := h.disk.Resolve(rel)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.File(path)
}
