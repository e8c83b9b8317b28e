package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	commissiondomain "github.com/finovia/adfin/internal/commission/domain"
	"github.com/finovia/adfin/internal/feecalc"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
	"github.com/finovia/adfin/internal/settlement"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		code := err.Error()
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictErrorMessage(code),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, feecalc.ErrInvalidAmount),
		errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, feeruledomain.ErrInvalidPlatform),
		errors.Is(err, feeruledomain.ErrInvalidPercent),
		errors.Is(err, feeruledomain.ErrInvalidAmount),
		errors.Is(err, refunddomain.ErrInvalidStatus),
		errors.Is(err, addomain.ErrInvalidStatus),
		errors.Is(err, addomain.ErrInvalidAccount),
		errors.Is(err, walletdomain.ErrInvalidStatus),
		errors.Is(err, walletdomain.ErrInvalidAmount),
		errors.Is(err, commissiondomain.ErrInvalidPeriod),
		errors.Is(err, commissiondomain.ErrInvalidAgent),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

// Overpaying a settlement or editing a decided record is a state
// conflict, not a malformed request.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, settlement.ErrExceedsPending),
		errors.Is(err, refunddomain.ErrNotEditable),
		errors.Is(err, addomain.ErrNotEditable),
		errors.Is(err, addomain.ErrNotApproved),
		errors.Is(err, walletdomain.ErrNotEditable):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, refunddomain.ErrNotFound),
		errors.Is(err, addomain.ErrNotFound),
		errors.Is(err, walletdomain.ErrNotFound),
		errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func conflictErrorMessage(code string) string {
	switch code {
	case "exceeds_pending":
		return "payment exceeds pending amount"
	default:
		return "conflict"
	}
}
