package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pedbook/internal/errors"
	"pedbook/internal/model"
)

// ListQuery holds the query parameters shared by list endpoints.
type ListQuery struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1"`
	Search   string `query:"search" validate:"omitempty,max=100"`
	AuthorID uint   `query:"author_id"`
	BookID   uint   `query:"book_id"`
	UserID   uint   `query:"user_id"`
	Status   string `query:"status" validate:"omitempty,oneof=active returned overdue"`
}

// respondError converts a service error into an echo HTTP error. Unmapped
// errors are logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func forbidden() error {
	return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
		Error: errors.ErrForbidden.Error(),
		Code:  "FORBIDDEN",
	})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid "+name, "INVALID_ID")
	}
	return uint(id), nil
}

// bindRequest binds and validates a request body.
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error(), "VALIDATION_FAILED")
	}
	return nil
}

// listParams reads pagination, search and filter query parameters.
func listParams(c echo.Context) (model.ListParams, error) {
	var q ListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return model.ListParams{}, badRequest("invalid query parameters", "INVALID_QUERY")
	}
	if err := c.Validate(&q); err != nil {
		return model.ListParams{}, badRequest(err.Error(), "VALIDATION_FAILED")
	}
	return model.ListParams{
		Page:     q.Page,
		Limit:    q.Limit,
		Search:   q.Search,
		AuthorID: q.AuthorID,
		BookID:   q.BookID,
		UserID:   q.UserID,
		Status:   model.LoanStatus(q.Status),
	}.Normalize(), nil
}

// formImage opens an uploaded multipart file.
func formImage(c echo.Context, field string) (string, io.ReadCloser, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil, badRequest("multipart field "+field+" is required", "MISSING_FILE")
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, badRequest("unreadable upload", "INVALID_UPLOAD")
	}
	return fh.Filename, f, nil
}
