package ravem

import (
	"errors"
	"fmt"
)

var (
	// ErrRavem matches every error produced by this package.
	ErrRavem = errors.New("ravem")
	// ErrUnsupportedMethod is a usage error: only GET and POST are allowed.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method, must be GET or POST")
)

// APIError reports a 2xx response whose JSON body has neither an "error"
// nor a "result" key.
type APIError struct {
	Message  string
	Endpoint string
	Response []byte
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool { return target == ErrRavem }

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrRavem }

// Reason classifies an OperationError.
type Reason string

const (
	ReasonAlreadyConnected    Reason = "already-connected"
	ReasonAlreadyDisconnected Reason = "already-disconnected"
	ReasonConnectedOther      Reason = "connected-other"
	ReasonRejected            Reason = "rejected"
	ReasonUnexpected          Reason = "unexpected-response"
)

// OperationError is a business-level rejection of a room operation.
type OperationError struct {
	Message string
	Reason  Reason
}

func (e *OperationError) Error() string { return e.Message }

func (e *OperationError) Is(target error) bool { return target == ErrRavem }

// IsReason reports whether err is an OperationError with the given reason.
func IsReason(err error, reason Reason) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Reason == reason
}
