// Package response writes JSON bodies and maps gateway errors to HTTP
// statuses.
package response

import (
	"encoding/json"
	"net/http"
)

// ContentType is the media type of every successful gateway response
const ContentType = "application/json"

// RenderJSON writes v as JSON with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		RenderInternalError(w, err)
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(statusCode)
	_, err = w.Write(body)
	return err
}

// RenderOK writes v as a 200 JSON response
func RenderOK(w http.ResponseWriter, v interface{}) error {
	return RenderJSON(w, http.StatusOK, v)
}

// RenderNoContent writes an empty 204 response
func RenderNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
