package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthorNotFound is returned when an author is missing or soft-deleted.
	ErrAuthorNotFound = errors.New("author not found")
	// ErrBookNotFound is returned when a book is missing or soft-deleted.
	ErrBookNotFound = errors.New("book not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoanNotFound is returned when a loan is not found.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrReviewNotFound is returned when a review is not found.
	ErrReviewNotFound = errors.New("review not found")

	// ErrLoanAlreadyActive is returned when the user already holds an unreturned loan of the book.
	ErrLoanAlreadyActive = errors.New("user already has an active loan for this book")
	// ErrLoanAlreadyReturned is returned when returning a loan twice.
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	// ErrBookHasActiveLoans blocks deleting a book that is out on loan.
	ErrBookHasActiveLoans = errors.New("book has active loans")
	// ErrAuthorHasBooks blocks deleting an author that still has books.
	ErrAuthorHasBooks = errors.New("author still has books")
	// ErrUserHasActiveLoans blocks deleting a user that still holds books.
	ErrUserHasActiveLoans = errors.New("user has active loans")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned when an email belongs to another user.
	ErrEmailTaken = errors.New("email already in use")
	// ErrReviewExists is returned when a user reviews the same book twice.
	ErrReviewExists = errors.New("user already reviewed this book")

	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidLoanPeriod is returned when the requested loan length is out of range.
	ErrInvalidLoanPeriod = errors.New("invalid loan period")
	// ErrInvalidISBN is returned when an ISBN fails its checksum.
	ErrInvalidISBN = errors.New("invalid isbn")
	// ErrInvalidRole is returned for unknown role names.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUnsupportedImage is returned for uploads that are not jpeg, png, gif or webp.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrInvalidPath is returned for upload paths escaping the upload directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrFileNotFound is returned when no upload matches a request.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrForbidden is returned when the caller may not touch a resource.
	ErrForbidden = errors.New("forbidden")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var mappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrAuthorNotFound, http.StatusNotFound, "AUTHOR_NOT_FOUND"},
	{ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrLoanNotFound, http.StatusNotFound, "LOAN_NOT_FOUND"},
	{ErrReviewNotFound, http.StatusNotFound, "REVIEW_NOT_FOUND"},
	{ErrFileNotFound, http.StatusNotFound, "FILE_NOT_FOUND"},
	{ErrLoanAlreadyActive, http.StatusConflict, "LOAN_ALREADY_ACTIVE"},
	{ErrLoanAlreadyReturned, http.StatusConflict, "LOAN_ALREADY_RETURNED"},
	{ErrBookHasActiveLoans, http.StatusConflict, "BOOK_HAS_ACTIVE_LOANS"},
	{ErrAuthorHasBooks, http.StatusConflict, "AUTHOR_HAS_BOOKS"},
	{ErrUserHasActiveLoans, http.StatusConflict, "USER_HAS_ACTIVE_LOANS"},
	{ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	{ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{ErrReviewExists, http.StatusConflict, "REVIEW_EXISTS"},
	{ErrInvalidRating, http.StatusBadRequest, "INVALID_RATING"},
	{ErrInvalidLoanPeriod, http.StatusBadRequest, "INVALID_LOAN_PERIOD"},
	{ErrInvalidISBN, http.StatusBadRequest, "INVALID_ISBN"},
	{ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{ErrUnsupportedImage, http.StatusBadRequest, "UNSUPPORTED_IMAGE"},
	{ErrInvalidPath, http.StatusBadRequest, "INVALID_PATH"},
	{ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
}

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
