package server

import (
	"strings"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/docx"
	"github.com/Abraxas-365/doccraft/validatex"
	"github.com/gofiber/fiber/v2"
)

// LoadRequest names a document to load
type LoadRequest struct {
	Source string `json:"source" validatex:"required"`
}

// LoadResponse wraps the loaded document
type LoadResponse struct {
	Document *document.Document `json:"document"`
	// SavedAs is set when ?save=true stored the document
	SavedAs string `json:"saved_as,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)

	v1 := s.app.Group("/v1")
	v1.Post("/documents", s.loadDocument)

	s.docs().RegisterWithFiber(s.app, "/docs")
}

func (s *Server) docs() *docx.RouterDoc {
	return docx.NewRouterDoc("/v1").WithTitle("doccraft").
		AddEndpoint(docx.NewEndpoint("/documents", docx.POST).
			WithSummary("Load a document").
			WithDescription("Runs OCR on a PDF given by URL or uploaded as the request body, "+
				"converts its tables to markdown and captions them.").
			WithTags("documents").
			WithHeader(fiber.HeaderContentType, fiber.MIMEApplicationJSON, true).
			WithQueryParam("format", "json (default) or markdown", false, "json").
			WithQueryParam("save", "store the document in the output location", false, false).
			WithRequestDTO(LoadRequest{}).
			WithResponseDTO(LoadResponse{}).
			WithRequestExample(LoadRequest{Source: "https://example.com/report.pdf"}).
			WithResponseExample(map[string]any{
				"document": map[string]any{"id": "3f1c...", "title": "Annual Report", "pages": []any{}},
			})).
		AddEndpoint(docx.NewEndpoint("/documents", docx.POST).
			WithSummary("Upload a PDF").
			WithDescription("Same as above with the PDF bytes as the body. Uploads are never cached.").
			WithTags("documents").
			WithHeader(fiber.HeaderContentType, "application/pdf", true).
			WithRequestExample("--data-binary @report.pdf"))
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{Status: "ok"})
}

func (s *Server) loadDocument(c *fiber.Ctx) error {
	src, err := s.source(c)
	if err != nil {
		return err
	}

	doc, err := s.loader.Load(c.UserContext(), src)
	if err != nil {
		return err
	}

	resp := LoadResponse{Document: doc}
	if c.QueryBool("save") {
		if s.output == nil {
			return fiber.NewError(fiber.StatusBadRequest, "saving is not enabled")
		}
		if resp.SavedAs, err = s.save(c, doc); err != nil {
			return err
		}
	}

	if c.Query("format") == "markdown" {
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(doc.Markdown())
	}
	return c.JSON(resp)
}

// source reads the document source from the request: raw bytes for PDF
// uploads, otherwise a JSON LoadRequest
func (s *Server) source(c *fiber.Ctx) (any, error) {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(ct, "application/pdf") || strings.HasPrefix(ct, fiber.MIMEOctetStream) {
		body := c.Body()
		if len(body) == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "empty request body")
		}
		// fiber reuses the body buffer after the handler returns
		return append([]byte(nil), body...), nil
	}

	var req LoadRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validatex.Validate(req); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.Source)
	if !s.localPaths && !document.IsURL(source) {
		return nil, document.NewError(document.ErrCodeUnsupportedContent, "Only http and https sources are accepted").
			WithDetail("source", source)
	}
	return source, nil
}

func (s *Server) save(c *fiber.Ctx, doc *document.Document) (string, error) {
	data, err := doc.ToJSON()
	if err != nil {
		return "", err
	}
	name := doc.ID + ".json"
	if err := s.output.WriteFile(c.UserContext(), name, data); err != nil {
		return "", document.NewError(document.ErrCodeIOFailure, "Failed to store document").
			WithCause(err).
			WithDetail("file", name)
	}
	s.logger.Debug("saved document %s to %s", doc.ID, s.output.Root())
	return name, nil
}
