package client

import (
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/utils"
	"encoding/json"
)

// GetData unwraps an envelope. A success=false envelope is a failure even
// when the transport status was 2xx.
func GetData[T any](env response_models.Envelope[T]) (T, error) {
	if !env.Success {
		var zero T
		code := ""
		if env.Error != nil {
			code = env.Error.Code
		}
		de := utils.NewDomainError(env.Message, code)
		de.RequestID = env.RequestID
		if env.Error != nil {
			de.Field = env.Error.Field
		}
		return zero, de
	}
	return env.Data, nil
}

// classify turns a non-2xx response into an *utils.AppError, keeping the
// envelope's message and code when the body carried one.
func classify(resp *Response) error {
	var env response_models.RawEnvelope
	_ = json.Unmarshal(resp.Body, &env)

	ae := utils.NewStatusError(resp.StatusCode, env.Message)
	ae.RequestID = resp.RequestID
	if env.Error != nil {
		ae.Code = env.Error.Code
		ae.Field = env.Error.Field
	}
	return ae
}

// decode reads the envelope of a 2xx response into T.
func decode[T any](resp *Response) (T, error) {
	var env response_models.Envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		var zero T
		return zero, &utils.AppError{
			Kind:      utils.KindDomain,
			Code:      "MALFORMED_RESPONSE",
			Message:   utils.MsgUnexpected,
			RequestID: resp.RequestID,
			Err:       err,
		}
	}
	return GetData(env)
}
