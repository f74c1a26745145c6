package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// maxBodyBytes caps request bodies, documents included.
const maxBodyBytes = 10 << 20

// apiError is the error body of every failed request.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// message is one websocket frame sent to the client.
type message struct {
	Type  string        `json:"type"` // "state" or "error"
	State *viewer.State `json:"state,omitempty"`
	Error *apiError     `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, toAPIError(err))
}

func toAPIError(err error) *apiError {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &apiError{Code: string(code), Message: errors.UserMessage(err)}
}

// httpStatus maps error codes onto response codes.
func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFileType, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeSessionNotFound, errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDiagramNotFound, errors.ErrCodeSyntax, errors.ErrCodeRenderFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed JSON body")
	}
	return nil
}
