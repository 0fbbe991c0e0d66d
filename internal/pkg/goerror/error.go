package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	// CodeInternal covers storage and delivery failures.
	CodeInternal Code = iota
	// CodeInvalidFormat is an undecodable body (400).
	CodeInvalidFormat
	// CodeInvalidInput is a decodable body failing field rules (422).
	CodeInvalidInput
	// CodeNotFound is an unknown corporate id or attachment (404).
	CodeNotFound
	// CodeConflict is a replayed idempotency key (409).
	CodeConflict
	// CodeTimeout indicates a timeout (408).
	CodeTimeout
	// CodeBadRequest is a well-formed request that was rejected, such as a
	// wrong or expired OTP (400).
	CodeBadRequest
	// CodeUnavailable is a backing store that cannot be reached (503).
	CodeUnavailable
)

var codeTable = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {name: "ERROR_CODE_INTERNAL", status: http.StatusInternalServerError},
	CodeInvalidFormat: {name: "ERROR_CODE_INVALID_FORMAT", status: http.StatusBadRequest},
	CodeInvalidInput:  {name: "ERROR_CODE_INVALID_INPUT", status: http.StatusUnprocessableEntity},
	CodeNotFound:      {name: "ERROR_CODE_NOT_FOUND", status: http.StatusNotFound},
	CodeConflict:      {name: "ERROR_CODE_CONFLICT", status: http.StatusConflict},
	CodeTimeout:       {name: "ERROR_CODE_TIMEOUT", status: http.StatusRequestTimeout},
	CodeBadRequest:    {name: "ERROR_CODE_BAD_REQUEST", status: http.StatusBadRequest},
	CodeUnavailable:   {name: "ERROR_CODE_UNAVAILABLE", status: http.StatusServiceUnavailable},
}

// String returns the string representation of the error code.
func (c Code) String() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return codeTable[CodeInternal].name
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, and a stable error code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if info, ok := codeTable[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// WrapServer creates a server-type error that keeps err in its chain and
// reports msg to the caller.
func WrapServer(err error, msg string) error {
	if msg == "" {
		msg = "Internal server error"
	}
	return new(err, msg, TypeServer, CodeInternal)
}

// NewUnavailable reports a dependency outage as 503, keeping err in the chain.
func NewUnavailable(err error, msg string) error {
	if msg == "" {
		msg = "Service unavailable"
	}
	return new(err, msg, TypeServer, CodeUnavailable)
}

// WrapBusiness is NewBusiness with an underlying error, so errors.Is still
// matches domain sentinels after translation.
func WrapBusiness(err error, msg string, code Code) error {
	return new(err, msg, TypeBusiness, code)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewInvalidInput reports failed field rules. With err (a validator error)
// the fields come from err; otherwise kv holds field/message pairs, and an
// odd kv degrades to an invalid-format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return new(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return new(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return new(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return new(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
