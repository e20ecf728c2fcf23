package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"prismfinance/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the domain error taxonomy onto HTTP status codes. The
// message always carries the wrapped detail so the UI can show it verbatim.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrUnsupportedDocumentFormat):
		status, code = http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_FORMAT"
	case errors.Is(err, domain.ErrAlreadySigned):
		status, code = http.StatusConflict, "ALREADY_SIGNED"
	case errors.Is(err, domain.ErrContractAlreadyFinal):
		status, code = http.StatusConflict, "CONTRACT_ALREADY_FINAL"
	case errors.Is(err, domain.ErrInvalidStateForDeletion):
		status, code = http.StatusConflict, "INVALID_STATE_FOR_DELETION"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]any{"error": errorBody{Code: code, Message: err.Error()}})
}
