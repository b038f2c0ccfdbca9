package signalk

import (
	"encoding/json"
	"net/http"
)

// Endpoint is an HTTP route exposed by a plugin under /plugins/{id}/.
type Endpoint struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// HTTPRequest is the request handed to a plugin endpoint handler.
type HTTPRequest struct {
	Method string            `json:"method"`
	Path   string            `json:"path"`
	Query  map[string]string `json:"query,omitempty"`
	Body   json.RawMessage   `json:"body,omitempty"`
}

// HTTPResponse is what a plugin endpoint handler returns.
type HTTPResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
}

// JSONResponse marshals v into a JSON response with the given status.
func JSONResponse(statusCode int, v any) HTTPResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return ErrorResponse(http.StatusInternalServerError, err.Error())
	}
	return HTTPResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

// ErrorResponse is a JSON {"error": message} response.
func ErrorResponse(statusCode int, message string) HTTPResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return HTTPResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
