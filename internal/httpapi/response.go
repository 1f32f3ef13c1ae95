package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vankino/internal/domain"
)

// ErrorBody is {"error":{"code":"...","message":"...","request_id":"..."}}.
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	JSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// Err maps an *domain.AppError to its status; anything else is a 500 whose
// details only reach the log.
func Err(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	requestID := RequestIDFromContext(r.Context())

	var ae *domain.AppError
	if errors.As(err, &ae) {
		Fail(w, statusFromCode(ae.Code), string(ae.Code), ae.Message, requestID)
		return
	}

	logger.Error("unhandled error",
		"request_id", requestID,
		"path", r.URL.Path,
		"error", err,
	)
	Fail(w, http.StatusInternalServerError, "internal_error", "internal error", requestID)
}

func statusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
