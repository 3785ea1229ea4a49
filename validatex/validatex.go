// Package validatex validates structs from `validatex` field tags.
//
//	type LoadRequest struct {
//		Source string `json:"source" validatex:"required"`
//		Window int    `json:"window" validatex:"min=0,max=10000"`
//	}
//
// Rules are comma separated; parameters follow an equals sign. Nested
// structs are walked and their fields reported as Parent.Field.
package validatex

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Abraxas-365/doccraft/errx"
)

var (
	ErrNotStruct = errors.New("value must be a struct")

	errRegistry = errx.NewRegistry("VALIDATION")

	// ErrCodeInvalid is carried by every validation failure
	ErrCodeInvalid = errRegistry.Register("INVALID", errx.TypeValidation, 400, "Validation failed")
)

// Validatable is implemented by types with checks beyond tags
type Validatable interface {
	Validate() error
}

// FieldError describes one failed rule
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", e.Field, e.Rule, e.Param)
	}
	return fmt.Sprintf("%s must satisfy %s", e.Field, e.Rule)
}

// Validate checks every tagged field of obj and, when obj implements
// Validatable, its own Validate method. Failures come back as one errx
// error whose details map field names to the failed rule.
func Validate(obj any) error {
	fields, err := structFields(obj, "")
	if err != nil {
		return err
	}

	var failures []FieldError
	for _, f := range fields {
		for _, rule := range f.rules {
			if rule.name != "required" && isZero(f.value) {
				// optional and unset
				continue
			}
			fn, ok := getValidationFunc(rule.name)
			if !ok {
				return fmt.Errorf("validatex: unknown rule %q on %s", rule.name, f.name)
			}
			if !fn(f.value, rule.param) {
				failures = append(failures, FieldError{Field: f.name, Rule: rule.name, Param: rule.param})
			}
		}
	}

	if len(failures) > 0 {
		return newError(failures)
	}

	if v, ok := obj.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// ErrInvalid reports a single failed rule, for Validatable implementations
func ErrInvalid(field, rule, param string) error {
	return newError([]FieldError{{Field: field, Rule: rule, Param: param}})
}

func newError(failures []FieldError) *errx.Error {
	sort.Slice(failures, func(i, j int) bool { return failures[i].Field < failures[j].Field })

	msgs := make([]string, 0, len(failures))
	xerr := errRegistry.New(ErrCodeInvalid)
	for _, f := range failures {
		msgs = append(msgs, f.String())
		xerr = xerr.WithDetail(f.Field, f.Rule)
	}
	xerr.Message = "Validation failed: " + strings.Join(msgs, "; ")
	return xerr
}

type fieldInfo struct {
	name  string
	value any
	rules []ruleInfo
}

type ruleInfo struct {
	name  string
	param string
}

// structFields collects tagged fields of obj, descending into nested structs
func structFields(obj any, prefix string) ([]fieldInfo, error) {
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	typ := val.Type()
	var fields []fieldInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		fv := val.Field(i)
		name := prefix + field.Name

		if tag := field.Tag.Get("validatex"); tag != "" && tag != "-" {
			fields = append(fields, fieldInfo{name: name, value: fv.Interface(), rules: parseTag(tag)})
		}

		if fv.Kind() == reflect.Ptr && !fv.IsNil() {
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Struct && fv.Type().PkgPath() != "time" {
			nested, err := structFields(fv.Interface(), name+".")
			if err != nil {
				return nil, err
			}
			fields = append(fields, nested...)
		}
	}
	return fields, nil
}

// parseTag parses "required,min=1" into rules
func parseTag(tag string) []ruleInfo {
	parts := strings.Split(tag, ",")
	rules := make([]ruleInfo, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		rules = append(rules, ruleInfo{name: name, param: param})
	}
	return rules
}

// isZero checks if a value is the zero value for its type
func isZero(value any) bool {
	if value == nil {
		return true
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface:
		return val.IsNil()
	case reflect.Slice, reflect.Map, reflect.Array:
		return val.Len() == 0
	default:
		return val.IsZero()
	}
}
