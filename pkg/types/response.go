package types

// Envelope is the uniform result every action returns to the client.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	// Code and Details are only populated on failures.
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
