package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pedbook/internal/middleware"
	"pedbook/internal/service"
)

// LoanHandler handles loan endpoints.
type LoanHandler struct {
	loans service.LoanService
}

// NewLoanHandler creates a new loan handler.
func NewLoanHandler(loans service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// CreateLoanRequest opens a loan. user_id is honored for librarians only;
// days defaults to the configured loan period.
type CreateLoanRequest struct {
	BookID uint `json:"book_id" validate:"required"`
	UserID uint `json:"user_id"`
	Days   int  `json:"days" validate:"omitempty,min=1"`
}

// CreateLoan godoc
// @Summary Borrow a book
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLoanRequest true "Loan"
// @Success 201 {object} model.Loan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	loan, err := h.loans.CreateLoan(c.Request().Context(), middleware.CurrentActor(c), service.LoanRequest{
		UserID: req.UserID,
		BookID: req.BookID,
		Days:   req.Days,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, loan)
}

// ReturnLoan godoc
// @Summary Return a borrowed book
// @Description Closes the loan and records the fine owed.
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} model.Loan
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /loans/{id}/return [post]
func (h *LoanHandler) ReturnLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.loans.ReturnLoan(c.Request().Context(), middleware.CurrentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}

// GetLoan godoc
// @Summary Get loan by id
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} model.Loan
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.loans.GetLoan(c.Request().Context(), middleware.CurrentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}

// ListLoans godoc
// @Summary List loans
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param user_id query int false "Filter by borrower"
// @Param book_id query int false "Filter by book"
// @Param status query string false "active, returned or overdue"
// @Success 200 {object} model.Page[model.Loan]
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.loans.ListLoans(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListMyLoans godoc
// @Summary List the caller's loans
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param status query string false "active, returned or overdue"
// @Success 200 {object} model.Page[model.Loan]
// @Router /loans/me [get]
func (h *LoanHandler) ListMyLoans(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.loans.ListUserLoans(c.Request().Context(), middleware.CurrentActor(c).UserID, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// DeleteLoan godoc
// @Summary Delete loan record
// @Tags loans
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.loans.DeleteLoan(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
