package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gwerrors "github.com/ontogate/ontogate/internal/errors"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RenderError renders a standard error response
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	RenderErrorWithCode(w, statusCode, err, "")
}

// RenderErrorWithCode renders an error with a specific error code
func RenderErrorWithCode(w http.ResponseWriter, statusCode int, err error, code string) {
	RenderErrorWithDetails(w, statusCode, err, code, nil)
}

// RenderErrorWithDetails renders an error with a code and additional details
func RenderErrorWithDetails(w http.ResponseWriter, statusCode int, err error, code string, details map[string]interface{}) {
	if code == "" {
		code = errorCodeFromStatus(statusCode)
	}

	response := &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    code,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// StatusFor maps an error to its HTTP status and error code
func StatusFor(err error) (int, string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, httpErr.Code
	}

	kind := gwerrors.Classify(err)
	switch kind {
	case gwerrors.KindNotFound:
		return http.StatusNotFound, kind.String()
	case gwerrors.KindInvalidParam:
		return http.StatusBadRequest, kind.String()
	case gwerrors.KindInvalidSchemaData:
		return http.StatusInternalServerError, kind.String()
	case gwerrors.KindTransport:
		return http.StatusBadGateway, kind.String()
	case gwerrors.KindTimeout:
		return http.StatusGatewayTimeout, kind.String()
	default:
		return http.StatusInternalServerError, errorCodeFromStatus(http.StatusInternalServerError)
	}
}

// RenderFromError renders err with the status of its kind. Invalid
// parameters carry the offending parameter name in details.
func RenderFromError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)

	var paramErr *gwerrors.InvalidParamError
	if errors.As(err, &paramErr) {
		RenderErrorWithDetails(w, status, err, code, map[string]interface{}{"param": paramErr.Param})
		return
	}
	RenderErrorWithCode(w, status, err, code)
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, fmt.Errorf("%s", message))
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter) {
	RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
}

// RenderInternalError renders a 500 Internal Server Error
func RenderInternalError(w http.ResponseWriter, err error) {
	message := "Internal server error"
	if err != nil {
		message = err.Error()
	}
	RenderError(w, http.StatusInternalServerError, fmt.Errorf("%s", message))
}

// RenderServiceUnavailable renders a 503 Service Unavailable error
func RenderServiceUnavailable(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RenderError(w, http.StatusServiceUnavailable, fmt.Errorf("%s", message))
}

func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestTimeout:
		return "request_timeout"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusBadGateway:
		return "bad_gateway"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusGatewayTimeout:
		return "gateway_timeout"
	default:
		return "error"
	}
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       errorCodeFromStatus(statusCode),
	}
}
