package docx

import (
	"reflect"
	"strings"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	DELETE HTTPMethod = "DELETE"
)

type Header struct {
	Name        string `json:"name"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

type Endpoint struct {
	Path        string     `json:"path"`
	Method      HTTPMethod `json:"method"`
	Description string     `json:"description"`
	Summary     string     `json:"summary,omitempty"`
	Tags        []string   `json:"tags,omitempty"`

	RequestSchema  *Schema `json:"requestSchema,omitempty"`
	ResponseSchema *Schema `json:"responseSchema,omitempty"`

	Headers     []Header `json:"headers,omitempty"`
	QueryParams []Header `json:"queryParams,omitempty"`

	RequestExample  any `json:"requestExample,omitempty"`
	ResponseExample any `json:"responseExample,omitempty"`
}

func NewEndpoint(path string, method HTTPMethod) *Endpoint {
	return &Endpoint{
		Path:   path,
		Method: method,
		Tags:   []string{},
	}
}

func (e *Endpoint) WithDescription(desc string) *Endpoint {
	e.Description = desc
	return e
}

func (e *Endpoint) WithSummary(summary string) *Endpoint {
	e.Summary = summary
	return e
}

func (e *Endpoint) WithTags(tags ...string) *Endpoint {
	e.Tags = append(e.Tags, tags...)
	return e
}

func (e *Endpoint) WithHeader(name, value string, required bool) *Endpoint {
	e.Headers = append(e.Headers, Header{
		Name:     name,
		Value:    value,
		Required: required,
	})
	return e
}

func (e *Endpoint) WithQueryParam(name, description string, required bool, defaultValue ...any) *Endpoint {
	param := Header{
		Name:        name,
		Description: description,
		Required:    required,
	}
	if len(defaultValue) > 0 {
		param.Default = defaultValue[0]
	}
	e.QueryParams = append(e.QueryParams, param)
	return e
}

func (e *Endpoint) WithRequestDTO(dto any) *Endpoint {
	schema := extractSchema(reflect.TypeOf(dto))
	e.RequestSchema = &schema
	return e
}

func (e *Endpoint) WithResponseDTO(dto any) *Endpoint {
	schema := extractSchema(reflect.TypeOf(dto))
	e.ResponseSchema = &schema
	return e
}

func (e *Endpoint) WithRequestExample(example any) *Endpoint {
	e.RequestExample = example
	return e
}

func (e *Endpoint) WithResponseExample(example any) *Endpoint {
	e.ResponseExample = example
	return e
}

type SchemaField struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Required bool          `json:"required"`
	Fields   []SchemaField `json:"fields,omitempty"`
}

type Schema struct {
	Type   string        `json:"type"`
	Fields []SchemaField `json:"fields,omitempty"`
}

// extractSchema describes the exported fields of a struct type by their
// JSON names. Fields without omitempty are reported as required.
func extractSchema(t reflect.Type) Schema {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	schema := Schema{Type: t.Name()}
	if t.Kind() != reflect.Struct || t.PkgPath() == "time" {
		return schema
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}

		sf := SchemaField{
			Name:     name,
			Type:     field.Type.String(),
			Required: !strings.Contains(opts, "omitempty"),
		}

		nested := field.Type
		for nested.Kind() == reflect.Ptr || nested.Kind() == reflect.Slice {
			nested = nested.Elem()
		}
		if nested.Kind() == reflect.Struct && nested != t {
			sf.Fields = extractSchema(nested).Fields
		}

		schema.Fields = append(schema.Fields, sf)
	}

	return schema
}
