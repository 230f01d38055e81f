package response_models

import "encoding/json"

// Envelope is the uniform wrapper every backend response carries.
type Envelope[T any] struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      T              `json:"data"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"requestId,omitempty"`
	Error     *EnvelopeError `json:"error,omitempty"`
}

type EnvelopeError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Field       string `json:"field,omitempty"`
}

// RawEnvelope defers decoding of data until the caller knows its type.
type RawEnvelope = Envelope[json.RawMessage]
