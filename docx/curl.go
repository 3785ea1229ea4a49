package docx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Markdown renders every endpoint with a curl example against baseURL
func (r *RouterDoc) Markdown(baseURL string) string {
	var b strings.Builder

	title := r.Title
	if title == "" {
		title = "API"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	for _, endpoint := range r.Endpoints {
		fmt.Fprintf(&b, "## %s %s%s\n\n", endpoint.Method, r.BasePath, endpoint.Path)
		if endpoint.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", endpoint.Description)
		}

		fmt.Fprintf(&b, "```bash\n%s\n```\n\n", GenerateCurl(baseURL+r.BasePath, endpoint))

		if endpoint.ResponseExample != nil {
			respJSON, err := json.MarshalIndent(endpoint.ResponseExample, "", "  ")
			if err == nil {
				fmt.Fprintf(&b, "**Example Response:**\n\n```json\n%s\n```\n\n", respJSON)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// GenerateCurl builds a curl command for endpoint under baseURL
func GenerateCurl(baseURL string, endpoint *Endpoint) string {
	fullURL := strings.TrimRight(baseURL, "/") + endpoint.Path

	if len(endpoint.QueryParams) > 0 {
		params := make([]string, 0, len(endpoint.QueryParams))
		for _, param := range endpoint.QueryParams {
			value := fmt.Sprintf("<%s>", strings.ToUpper(param.Name))
			if param.Default != nil {
				value = fmt.Sprintf("%v", param.Default)
			}
			params = append(params, param.Name+"="+value)
		}
		fullURL += "?" + strings.Join(params, "&")
	}

	curl := fmt.Sprintf("curl -X %s \\\n  '%s'", endpoint.Method, fullURL)

	for _, header := range endpoint.Headers {
		value := header.Value
		if value == "" {
			value = "<VALUE>"
		}
		curl += fmt.Sprintf(" \\\n  -H '%s: %s'", header.Name, value)
	}

	if endpoint.Method == POST && endpoint.RequestExample != nil {
		switch body := endpoint.RequestExample.(type) {
		case string:
			curl += fmt.Sprintf(" \\\n  %s", body)
		default:
			bodyJSON, err := json.Marshal(body)
			if err == nil {
				curl += fmt.Sprintf(" \\\n  -d '%s'", bodyJSON)
			}
		}
	}

	return curl
}
