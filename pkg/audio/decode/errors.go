package decode

// DecodeError represents audio decoding errors
type DecodeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeEmptyInput  = "EMPTY_INPUT"
	ErrCodeCorrupt     = "CORRUPT_AUDIO"
	ErrCodeUnsupported = "UNSUPPORTED_FORMAT"
)

// NewDecodeError creates a new decode error
func NewDecodeError(code, message string, cause error) *DecodeError {
	return &DecodeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
