package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const CodeInvalidBody = "INVALID_BODY"

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusOf(err error) int {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict, shared.KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// fail writes err as a JSON body. Infrastructure details stay in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Code: shared.CodeOf(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		body = errorBody{Code: shared.CodeInfrastructure, Message: "internal error"}
	}
	writeJSON(w, status, body)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.Validation(CodeInvalidBody, "request body is required")
		}
		if coded := shared.CodeOf(err); coded != "" {
			return err
		}
		return shared.Validation(CodeInvalidBody, "invalid request body: %v", err)
	}
	return nil
}
