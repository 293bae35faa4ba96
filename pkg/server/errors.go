package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
)

type errorResponse struct {
	Code      errs.Code `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

func errNotFound(path string) error {
	return errs.New(errs.ErrCodeNotFound, "no route for %s", path)
}

func errMethodNotAllowed(method, path string) error {
	return errs.New(errs.ErrCodeUnsupported, "%s not allowed on %s", method, path)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errs.IsInvalid(err):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrCodeNotFound), errs.Is(err, errs.ErrCodeFileNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrCodeUnsupported):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes the error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	writeError(w, r, err)
}

// writeError writes err as a JSON error body. Internal errors are reported
// without their details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Code:      errs.GetCode(err),
		Message:   errs.UserMessage(err),
		RequestID: RequestID(r.Context()),
	}
	switch {
	case status == http.StatusRequestEntityTooLarge:
		resp.Code = errs.ErrCodeInvalidArgument
		resp.Message = "request body too large"
	case status == http.StatusInternalServerError:
		resp.Code = errs.ErrCodeInternal
		resp.Message = "internal error"
	case resp.Code == "":
		resp.Code = errs.ErrCodeInternal
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
