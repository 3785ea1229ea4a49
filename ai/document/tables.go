package document

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Abraxas-365/doccraft/ai/ocr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxSpan caps colspan/rowspan values taken from markup
const maxSpan = 1000

var errNoRows = errors.New("table has no rows")

// Grid is the normalized form of a table: a header row and body rows, all
// of the same width
type Grid struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Width returns the number of columns
func (g Grid) Width() int {
	return len(g.Header)
}

// ParseTable parses the first <table> in markup. Spanning cells are
// repeated into every row and column they cover, short rows are padded and
// the first row becomes the header.
func ParseTable(markup string) (Grid, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Grid{}, err
	}

	table := findElement(doc, atom.Table)
	if table == nil {
		return Grid{}, errNoRows
	}

	var trs []*html.Node
	collectRows(table, &trs)

	rows := make([][]string, 0, len(trs))
	pending := make(map[int]*rowSpan)
	for _, tr := range trs {
		if row := expandRow(tr, pending); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return Grid{}, errNoRows
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	return Grid{Header: rows[0], Rows: rows[1:]}, nil
}

type rowSpan struct {
	text string
	left int
}

// expandRow lays out one <tr>, filling columns still covered by a rowspan
// from a previous row. A row without cells still consumes those spans and
// yields nil.
func expandRow(tr *html.Node, pending map[int]*rowSpan) []string {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, c)
		}
	}

	// Spans opened by this row start on the next one.
	last := -1
	for c := range pending {
		last = max(last, c)
	}

	var row []string
	col := 0
	take := func() bool {
		span, ok := pending[col]
		if !ok {
			return false
		}
		row = append(row, span.text)
		if span.left--; span.left == 0 {
			delete(pending, col)
		}
		col++
		return true
	}

	for _, cell := range cells {
		for take() {
		}
		text := cellText(cell)
		colspan := spanAttr(cell, "colspan")
		rowspan := spanAttr(cell, "rowspan")
		for k := 0; k < colspan; k++ {
			row = append(row, text)
			// a colspan overlapping a carried span wins
			delete(pending, col)
			if rowspan > 1 {
				pending[col] = &rowSpan{text: text, left: rowspan - 1}
			}
			col++
		}
	}
	for col <= last {
		if !take() {
			row = append(row, "")
			col++
		}
	}

	if len(cells) == 0 {
		return nil
	}
	return row
}

// collectRows gathers <tr> elements of table, skipping nested tables
func collectRows(n *html.Node, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			*out = append(*out, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			collectRows(c, out)
		}
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func spanAttr(n *html.Node, key string) int {
	for _, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(attr.Val))
		if err != nil || v < 1 {
			return 1
		}
		return min(v, maxSpan)
	}
	return 1
}

// cellText returns the visible text of a cell with whitespace collapsed
func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Br, atom.P, atom.Div, atom.Li:
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// RenderMarkdown renders g as a pipe table
func RenderMarkdown(g Grid) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, cell := range cells {
			b.WriteString(" ")
			b.WriteString(escapeMarkdown(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(g.Header)
	b.WriteString("|")
	for range g.Header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range g.Rows {
		writeRow(row)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// escapeMarkdown keeps cell text from breaking the table layout
func escapeMarkdown(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '|':
			b.WriteString("\\|")
		case '\n':
			b.WriteByte(' ')
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReplacePlaceholder replaces the first [id](id) in text with replacement.
// It reports whether the placeholder was found.
func ReplacePlaceholder(text, id, replacement string) (string, bool) {
	placeholder := ocr.Placeholder(id)
	if !strings.Contains(text, placeholder) {
		return text, false
	}
	return strings.Replace(text, placeholder, replacement, 1), true
}

// ExtractPage converts one OCR page into a Page numbered number. Tables are
// processed in provider order; a table that does not parse is left out, its
// placeholder stays in the text and a warning is returned for it.
func ExtractPage(raw ocr.Page, number int) (*Page, []Warning) {
	page := &Page{
		Number:   number,
		Markdown: raw.Markdown,
		Tables:   make([]*Table, 0, len(raw.Tables)),
	}

	var warnings []Warning
	for _, t := range raw.Tables {
		grid, err := ParseTable(t.Content)
		if err != nil {
			perr := errRegistry.NewWithCause(ErrCodeTableParse, err).
				WithDetail("page", number).
				WithDetail("table_id", t.ID)
			warnings = append(warnings, newWarning(perr, number, t.ID))
			continue
		}

		markdown := RenderMarkdown(grid)
		page.Markdown, _ = ReplacePlaceholder(page.Markdown, t.ID, markdown)
		page.Tables = append(page.Tables, &Table{
			SourceID: t.ID,
			HTML:     t.Content,
			Markdown: markdown,
			Grid:     grid,
		})
	}

	return page, warnings
}
