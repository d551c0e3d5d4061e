package apperror

import "net/http"

// AppError is a caller-facing error carrying an HTTP status code and a stable machine-readable kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 404, 409, 422)
	Kind    string // Stable error kind (e.g., "date_conflict")
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
// This lets wrapped copies created by Wrap still match their sentinel with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind != "" && e.Kind == t.Kind
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a copy of sentinel that carries err as its cause.
func Wrap(sentinel *AppError, err error) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Kind:    sentinel.Kind,
		Message: sentinel.Message,
		Err:     err,
	}
}

// Internal is the kind reported for infrastructure faults.
const Internal = "internal_error"

// ErrInternal is the generic response for faults that are not part of the business taxonomy.
var ErrInternal = New(http.StatusInternalServerError, Internal, "internal server error")
