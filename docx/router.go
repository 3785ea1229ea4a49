// Package docx describes HTTP endpoints and serves the description as JSON
// or as markdown with curl examples.
package docx

import (
	"github.com/gofiber/fiber/v2"
)

type RouterDoc struct {
	Title     string      `json:"title,omitempty"`
	BasePath  string      `json:"basePath"`
	Endpoints []*Endpoint `json:"endpoints"`
}

func NewRouterDoc(basePath string) *RouterDoc {
	return &RouterDoc{
		BasePath:  basePath,
		Endpoints: []*Endpoint{},
	}
}

func (r *RouterDoc) WithTitle(title string) *RouterDoc {
	r.Title = title
	return r
}

func (r *RouterDoc) AddEndpoint(endpoint *Endpoint) *RouterDoc {
	r.Endpoints = append(r.Endpoints, endpoint)
	return r
}

// RegisterWithFiber serves the documentation at path. ?format=markdown
// renders it as markdown with curl examples built against the request host.
func (r *RouterDoc) RegisterWithFiber(app *fiber.App, path string) {
	app.Get(path, func(c *fiber.Ctx) error {
		if c.Query("format") == "markdown" {
			c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
			return c.SendString(r.Markdown(c.BaseURL()))
		}
		return c.JSON(r)
	})
}
