package signalk

import "net/http"

// StateCompleted is the only state a synchronous PUT handler reports.
const StateCompleted = "COMPLETED"

// PutResponse is the result of a PUT request handled by a plugin.
type PutResponse struct {
	State      string `json:"state"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`
}

// PutOK is a successful PUT response.
func PutOK(message string) PutResponse {
	return PutResponse{State: StateCompleted, StatusCode: http.StatusOK, Message: message}
}

// PutFailed is a completed PUT response carrying an error status.
func PutFailed(statusCode int, message string) PutResponse {
	return PutResponse{State: StateCompleted, StatusCode: statusCode, Message: message}
}

// PutRequest is the body of a Signal K PUT.
type PutRequest struct {
	Value any `json:"value"`
}
