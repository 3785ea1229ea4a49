package validatex

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// ValidationFunc defines a function that validates a value
type ValidationFunc func(value any, param string) bool

// builtinValidationFuncs is a map of built-in validation functions
var builtinValidationFuncs = map[string]ValidationFunc{
	"required": validateRequired,
	"min":      validateMin,
	"max":      validateMax,
	"oneof":    validateOneOf,
	"url":      validateURL,
	"prefix":   validatePrefix,
}

// customValidationFuncs is a map of user-registered validation functions
var customValidationFuncs = map[string]ValidationFunc{}

// RegisterValidationFunc registers a custom validation function
func RegisterValidationFunc(name string, fn ValidationFunc) {
	customValidationFuncs[name] = fn
}

// getValidationFunc returns a validation function by name
func getValidationFunc(name string) (ValidationFunc, bool) {
	if fn, ok := customValidationFuncs[name]; ok {
		return fn, true
	}
	fn, ok := builtinValidationFuncs[name]
	return fn, ok
}

// validateRequired validates that a value is not empty
func validateRequired(value any, _ string) bool {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return !isZero(value)
}

// validateMin checks numbers against the bound, strings and collections by length
func validateMin(value any, param string) bool {
	bound, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return false
	}
	n, ok := measure(value)
	return ok && n >= bound
}

// validateMax is the upper counterpart of validateMin
func validateMax(value any, param string) bool {
	bound, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return false
	}
	n, ok := measure(value)
	return ok && n <= bound
}

func measure(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return float64(rv.Len()), true
	}
	return 0, false
}

// validateOneOf validates that a value is one of a space separated list
func validateOneOf(value any, param string) bool {
	s := fmt.Sprintf("%v", value)
	for _, allowed := range strings.Fields(param) {
		if allowed == s {
			return true
		}
	}
	return false
}

// validateURL accepts absolute http and https URLs
func validateURL(value any, _ string) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validatePrefix validates that a string starts with one of the | separated prefixes
func validatePrefix(value any, param string) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, p := range strings.Split(param, "|") {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
