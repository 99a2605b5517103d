package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"medbill/internal/core"
	"medbill/internal/ledger"
)

type errorResponse struct {
	Error     string                `json:"error"`
	Code      string                `json:"code"`
	Line      int                   `json:"line,omitempty"`
	Details   core.ValidationErrors `json:"details,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED"
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidGSTRate):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ledger.ErrExcessReturnQuantity):
		return http.StatusConflict, "EXCESS_RETURN_QUANTITY"
	case errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrBatchExpired):
		return http.StatusConflict, "BATCH_EXPIRED"
	case errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict, "DUPLICATE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeServiceError translates err into a JSON error response. Internal
// errors are logged and replaced with a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	resp := errorResponse{Error: err.Error(), Code: code}

	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "validation failed"
		resp.Details = verrs
	}
	var lineErr *core.LineError
	if errors.As(err, &lineErr) {
		resp.Line = lineErr.Line
	}
	if status == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		resp.Error = "internal server error"
	}
	writeErrorResponse(w, r, resp, status)
}
