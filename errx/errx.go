package errx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Code represents a unique error code for each type of error
type Code string

// Type represents the general category of the error
type Type string

const (
	// Error Types
	TypeValidation  Type = "VALIDATION"
	TypeNotFound    Type = "NOT_FOUND"
	TypeInternal    Type = "INTERNAL"
	TypeBadRequest  Type = "BAD_REQUEST"
	TypeSystem      Type = "SYSTEM"      // For system/infrastructure errors
	TypeExternal    Type = "EXTERNAL"    // For external service errors
	TypeTimeout     Type = "TIMEOUT"     // For timeout errors
	TypeUnavailable Type = "UNAVAILABLE" // For service unavailability
)

// Error represents a standardized error
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors carrying the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails replaces the details map and returns the same error
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error and returns the same error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps another error as the cause of this error
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// ToHTTP writes the error to a net/http response writer
func (e *Error) ToHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status())
	json.NewEncoder(w).Encode(e)
}

// ToFiber writes the error as the JSON body of a Fiber response
func (e *Error) ToFiber(c *fiber.Ctx) error {
	return c.Status(e.status()).JSON(e)
}

func (e *Error) status() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// Print renders an error with its details in a stable, human readable form
func Print(e error) string {
	if e == nil {
		return "nil"
	}

	var xerr *Error
	if !errors.As(e, &xerr) {
		return fmt.Sprintf("Error: %s", e.Error())
	}

	if len(xerr.Details) == 0 {
		return fmt.Sprintf("Error: %s", xerr.Error())
	}

	keys := make([]string, 0, len(xerr.Details))
	for k := range xerr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, xerr.Details[k]))
	}
	return fmt.Sprintf("Error: %s, Details: {%s}", xerr.Error(), strings.Join(parts, ", "))
}

// IsCode checks if an error is an Error with a specific code
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsType checks if an error is an Error with a specific type
func IsType(err error, errType Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

// CodeOf returns the code of the outermost Error in the chain, or "" if there is none
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Registry helps manage error definitions across packages
type Registry struct {
	prefix    string
	errorDefs map[Code]*Error
}

// NewRegistry creates a new Registry with a prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:    prefix,
		errorDefs: make(map[Code]*Error),
	}
}

// Register adds a new error definition to the registry
func (r *Registry) Register(code Code, errType Type, httpStatus int, message string) Code {
	fullCode := Code(fmt.Sprintf("%s_%s", r.prefix, code))
	r.errorDefs[fullCode] = &Error{
		Code:       fullCode,
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
	return fullCode
}

// New creates a new instance of a registered error
func (r *Registry) New(code Code) *Error {
	if def, ok := r.errorDefs[code]; ok {
		// copy so callers can attach details without touching the definition
		return &Error{
			Code:       def.Code,
			Type:       def.Type,
			Message:    def.Message,
			HTTPStatus: def.HTTPStatus,
		}
	}
	return &Error{
		Code:       "UNKNOWN_ERROR",
		Type:       TypeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewWithMessage creates a new instance of a registered error with a custom message
func (r *Registry) NewWithMessage(code Code, message string) *Error {
	err := r.New(code)
	err.Message = message
	return err
}

// NewWithCause creates a new instance of a registered error with an underlying cause
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	err := r.New(code)
	err.cause = cause
	return err
}

// Wrap wraps a standard error with contextual information
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}

	var xerr *Error
	if errors.As(err, &xerr) {
		return &Error{
			Code:       xerr.Code,
			Type:       errType,
			Message:    message,
			Details:    xerr.Details,
			HTTPStatus: xerr.HTTPStatus,
			cause:      err,
		}
	}

	return &Error{
		Code:    Code(fmt.Sprintf("%s_ERROR", errType)),
		Type:    errType,
		Message: message,
		cause:   err,
	}
}

// New creates a new Error with the given message and type
func New(message string, errType Type) *Error {
	return &Error{
		Code:    Code(fmt.Sprintf("%s_ERROR", errType)),
		Type:    errType,
		Message: message,
	}
}
