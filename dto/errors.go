package dto

// ErrorResponse is the wire shape of every generation-endpoint failure.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}
