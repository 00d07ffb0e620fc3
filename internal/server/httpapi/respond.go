package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deliverhub/deliverhub/internal/common"
)

// errorBody is the wire shape of every failure: a stable machine-readable
// kind, a human-readable message, and per-field detail for validation
// failures.
type errorBody struct {
	Error struct {
		Kind    string            `json:"kind"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)

	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = err.Error()

	var verr *common.ValidationError
	if errors.As(err, &verr) {
		body.Error.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		// Do not leak internals on unexpected errors.
		body.Error.Message = "internal error"
	}

	writeJSON(w, status, body)
}

func classify(err error) (kind string, status int) {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrInvalidToken):
		return "Unauthenticated", http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return "Forbidden", http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return "NotFound", http.StatusNotFound
	case errors.Is(err, common.ErrorValidation):
		return "ValidationFailed", http.StatusBadRequest
	case errors.Is(err, common.ErrorStateConflict):
		return "StateConflict", http.StatusConflict
	case errors.Is(err, common.ErrorUpstream):
		return "UpstreamFailure", http.StatusBadGateway
	default:
		return "Internal", http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	return nil
}
