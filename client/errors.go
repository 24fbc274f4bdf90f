package client

import "fmt"

// client errors
var (
	ErrNotConnected   = fmt.Errorf("websocket is not connected")
	ErrEmptyPromptID  = fmt.Errorf("prompt id is empty")
	ErrHistoryMissing = fmt.Errorf("prompt id not present in history")
)

// APIError a ComfyUI response body carrying an "error" field
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("comfyui returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("comfyui returned an error: %s", e.Body)
}
