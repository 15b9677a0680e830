// Package respond writes JSON responses and maps service errors onto HTTP
// status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"annotations/pkg/apperror"
	"annotations/pkg/logger"
)

const maxBodyBytes = 4 << 20

type errorBody struct {
	Error string `json:"error"`
}

// JSON encodes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Error maps err to its status code and echoes its message as {"error": ...}.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Sugar.Errorf("Handler: %s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Sugar.Debugf("Handler: %s %s rejected: %v", r.Method, r.URL.Path, err)
	}
	JSON(w, status, errorBody{Error: err.Error()})
}

// AllowMethod writes a 405 and returns false when r does not use method.
func AllowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	Error(w, r, apperror.MethodNotAllowed("Invalid HTTP method. Use %s.", method))
	return false
}

// DecodeBody reads a JSON request body into v, answering 400 on failure.
func DecodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, r, apperror.Validation("Invalid request body: %v", err))
		return false
	}
	return true
}
