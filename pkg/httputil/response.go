package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Response is the JSON envelope returned by every endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope. Kind is stable across
// releases and safe for clients to branch on.
type ErrorResponse struct {
	Kind      apperrors.Kind    `json:"kind"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps data in the envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError writes an error envelope whose status and kind are derived from
// err. Errors that map to INTERNAL are logged and their details hidden.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, resp := errorResponse(r, err, fallback)
	WriteJSON(w, status, Response{Error: resp})
}

// WriteErrorWithData writes an error envelope that also carries data, for
// operations that partially succeeded before failing.
func WriteErrorWithData(w http.ResponseWriter, r *http.Request, err error, data any, fallback *slog.Logger) {
	status, resp := errorResponse(r, err, fallback)
	WriteJSON(w, status, Response{Data: data, Error: resp})
}

func errorResponse(r *http.Request, err error, fallback *slog.Logger) (int, *ErrorResponse) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, validationResponse(valErr, requestID)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Kind != apperrors.KindInternal {
		return apperrors.HTTPStatus(appErr), &ErrorResponse{
			Kind:      appErr.Kind,
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
		}
	}

	kind := apperrors.KindOf(err)
	resp := &ErrorResponse{Kind: kind, RequestID: requestID}
	switch kind {
	case apperrors.KindNotFound:
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case apperrors.KindConflict:
		resp.Code, resp.Message = "CONFLICT", "resource already exists"
	case apperrors.KindValidation:
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	case apperrors.KindUnauthorized:
		resp.Code, resp.Message = "UNAUTHORIZED", "unauthorized"
	case apperrors.KindForbidden:
		resp.Code, resp.Message = "FORBIDDEN", "forbidden"
	default:
		resp.Code, resp.Message = "INTERNAL_ERROR", "an internal error occurred"
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}
	return apperrors.StatusForKind(kind), resp
}

// WriteValidationError writes a 400 for a request body that failed to decode
// or validate.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{Error: validationResponse(valErr, requestID)})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{
			Kind:      apperrors.KindValidation,
			Code:      "INVALID_INPUT",
			Message:   err.Error(),
			RequestID: requestID,
		},
	})
}

func validationResponse(valErr *validator.ValidationError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Kind:      apperrors.KindValidation,
		Code:      "VALIDATION_ERROR",
		Message:   "request validation failed",
		Fields:    valErr.Fields(),
		RequestID: requestID,
	}
}

// ParseUUID parses a path parameter as a UUID. On failure it writes a 400
// and returns false so the caller can return early.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Kind:    apperrors.KindValidation,
				Code:    "INVALID_PARAMETER",
				Message: "invalid UUID: " + param,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
