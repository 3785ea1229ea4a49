package document

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Assemble composes processed pages into a Document. Missing identifiers
// are filled with new UUIDs and the title comes from the first heading on
// the first page. It does no I/O.
func Assemble(source string, pages []*Page) *Document {
	doc := &Document{
		ID:        uuid.New().String(),
		Source:    source,
		Pages:     pages,
		CreatedAt: time.Now().UTC(),
	}
	if doc.Pages == nil {
		doc.Pages = []*Page{}
	}

	for _, p := range doc.Pages {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		for _, t := range p.Tables {
			if t.ID == "" {
				t.ID = uuid.New().String()
			}
		}
	}

	if len(doc.Pages) > 0 {
		doc.Title = FirstHeading(doc.Pages[0].Markdown)
	}
	return doc
}

// FirstHeading returns the text of the first markdown heading in source, or ""
func FirstHeading(source string) string {
	src := []byte(source)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = strings.TrimSpace(string(h.Text(src)))
			if title != "" {
				return ast.WalkStop, nil
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}
