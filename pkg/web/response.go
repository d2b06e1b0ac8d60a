// Package web defines common components for a web application.
package web

// Response holds the common response type for all APIs.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error wraps err into a response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}
