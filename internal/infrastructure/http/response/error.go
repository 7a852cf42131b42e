package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/pomotodo/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	write(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{{Field: field, Issue: issue}},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError sends a 500 Internal Server Error. The cause is logged, the
// client only sees a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	write(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// fieldErrors maps validation failures to the request field they concern.
var fieldErrors = []struct {
	err   error
	field string
	issue string
}{
	{domain.ErrTitleRequired, "title", "required field missing"},
	{domain.ErrTitleTooLong, "title", "must be 255 characters or less"},
	{domain.ErrInvalidID, "id", "invalid ID format"},
	{domain.ErrInvalidPriority, "priority", "must be one of low, medium, high"},
	{domain.ErrInvalidCategory, "category", "must be one of work, personal, shopping, other"},
	{domain.ErrInvalidRepeatType, "repeat_type", "must be one of none, daily, weekly, monthly"},
	{domain.ErrInvalidSoundType, "sound", "unknown sound"},
	{domain.ErrInvalidTimezone, "timezone", "unknown IANA timezone"},
	{domain.ErrInvalidSortField, "sort", "must be one of created, date, priority, category"},
	{domain.ErrReminderDateZero, "date", "required field missing"},
	{domain.ErrInvalidDuration, "duration", "must be positive"},
	{domain.ErrPresetNameInvalid, "name", "must be 1-64 characters"},
	{domain.ErrEmptyUpdateMask, "update_mask", "cannot be empty"},
	{domain.ErrInvalidDateRange, "from", "must not be after to"},
}

// notFound maps missing-resource errors to the resource name reported to the client.
// More specific errors come before ErrNotFound.
var notFound = []struct {
	err      error
	resource string
}{
	{domain.ErrTaskNotFound, "task"},
	{domain.ErrPresetNotFound, "preset"},
	{domain.ErrFilterNotFound, "filter"},
	{domain.ErrReminderNotSet, "reminder"},
	{domain.ErrNotFound, "resource"},
}

// FromDomainError maps domain errors to HTTP responses. Anything it does not
// recognise is logged and reported as a 500.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			ValidationError(w, fe.field, fe.issue)
			return
		}
	}
	if errors.Is(err, domain.ErrUnknownField) {
		ValidationError(w, "update_mask", err.Error())
		return
	}
	for _, nf := range notFound {
		if errors.Is(err, nf.err) {
			NotFound(w, nf.resource)
			return
		}
	}
	switch {
	case errors.Is(err, domain.ErrBuiltInPreset),
		errors.Is(err, domain.ErrWorkRunning),
		errors.Is(err, domain.ErrWorkNotRunning),
		errors.Is(err, domain.ErrTaskCompleted):
		Conflict(w, err.Error())
		return
	}
	InternalError(w, r, err)
}
