package httpdto

// ErrorCode is the machine readable reason of a failed request.
type ErrorCode string

const (
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeTooLarge       ErrorCode = "TOO_LARGE"
	CodeRateLimited    ErrorCode = "RATE_LIMITED"
	CodeNotConfigured  ErrorCode = "NOT_CONFIGURED"
	CodeUnavailable    ErrorCode = "UNAVAILABLE"
	CodeUnhealthy      ErrorCode = "UNHEALTHY"
	CodeRavemError     ErrorCode = "RAVEM_ERROR"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// Response is the JSON envelope of every attachment, conversion check and
// room endpoint. Room operation conflicts carry the RAVEM reason as Code.
type Response[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    ErrorCode `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code ErrorCode) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}
