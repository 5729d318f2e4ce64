package utils

import (
	"encoding/json"
	"net/http"

	"github.com/upb/casting-agency/autherr"
)

// ErrorResponse is the error envelope returned by every endpoint.
// Message is either a plain string or an AuthErrorDetail.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   int         `json:"error"`
	Message interface{} `json:"message"`
}

// AuthErrorDetail is the message body of an authorization failure
type AuthErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteError writes the error envelope with a plain message
func WriteError(w http.ResponseWriter, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: message,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter) error {
	return WriteError(w, http.StatusNotFound, "Not Found")
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed response
func WriteMethodNotAllowed(w http.ResponseWriter) error {
	return WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// WriteAuthError renders an authorization failure with the status, code and
// description of its kind. Errors outside the taxonomy render as 401 unauthorized.
func WriteAuthError(w http.ResponseWriter, err error) error {
	kind := autherr.KindOf(err)
	status := kind.Status()
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="`+kind.Code()+`"`)
	}
	return WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   status,
		Message: AuthErrorDetail{
			Code:        kind.Code(),
			Description: kind.Description(),
		},
	})
}
