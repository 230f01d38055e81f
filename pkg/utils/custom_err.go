package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindBadRequest      ErrorKind = "bad_request"
	KindServer          ErrorKind = "server"
	KindUnavailable     ErrorKind = "unavailable"
	KindTransport       ErrorKind = "transport"
	KindDomain          ErrorKind = "domain"
)

const (
	MsgBadRequest      = "Invalid request. Please check your input."
	MsgUnauthenticated = "Your session has expired. Please log in again."
	MsgForbidden       = "You do not have permission to perform this action."
	MsgNotFound        = "The requested resource was not found."
	MsgServer          = "Server error. Please try again later."
	MsgUnavailable     = "Service temporarily unavailable. Please try again later."
	MsgNoResponse      = "Unable to reach the server. Please check your connection."
	MsgUnexpected      = "Something went wrong. Please try again."
)

var (
	ErrFormIncomplete    = errors.New("assessment form is incomplete")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
	ErrNoSubscription    = errors.New("no subscription loaded")
	ErrPaymentInProgress = errors.New("a payment is already being processed")
	ErrNoPendingCheck    = errors.New("no pending check to resume")
	ErrInvalidPrediction = errors.New("prediction response is invalid")
)

// Sentinels returned by the sandbox backend's services.
var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenRevoked       = errors.New("refresh token revoked or unknown")
	ErrQuotaExceeded      = errors.New("assessment quota exhausted")
	ErrInvalidAmount      = errors.New("amount does not match plan price")
)

// AppError is the single error shape handed to engines. Message is always
// safe to show to a user.
type AppError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Field      string
	Message    string
	RequestID  string
	Err        error
}

func (e *AppError) Error() string {
	if e == nil {
		return "app error"
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status=%d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(msg string, err error) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, Err: err}
}

func NewUnauthenticatedError(err error) *AppError {
	return &AppError{Kind: KindUnauthenticated, StatusCode: http.StatusUnauthorized, Message: MsgUnauthenticated, Err: err}
}

func NewTransportError(err error) *AppError {
	return &AppError{Kind: KindTransport, Message: MsgNoResponse, Err: err}
}

func NewDomainError(msg string, code string) *AppError {
	if strings.TrimSpace(msg) == "" {
		msg = MsgUnexpected
	}
	return &AppError{Kind: KindDomain, Code: code, Message: msg}
}

// NewStatusError classifies a non-2xx response. Client errors keep the
// server's message when it sent one; 5xx messages are never shown.
func NewStatusError(status int, serverMsg string) *AppError {
	serverMsg = strings.TrimSpace(serverMsg)
	e := &AppError{StatusCode: status}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthenticated, MsgUnauthenticated
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case status == http.StatusServiceUnavailable:
		e.Kind, e.Message = KindUnavailable, MsgUnavailable
		return e
	case status >= 500:
		e.Kind, e.Message = KindServer, MsgServer
		return e
	default:
		e.Kind, e.Message = KindBadRequest, MsgBadRequest
	}
	if serverMsg != "" {
		e.Message = serverMsg
	}
	return e
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}

// UserMessage normalizes any error to the string stored in an engine's
// error slot.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := AsAppError(err); ok && ae.Message != "" {
		return ae.Message
	}
	return MsgUnexpected
}
