package document

import (
	"strings"
	"unicode/utf8"

	"github.com/Abraxas-365/doccraft/ai/ocr"
)

// DefaultContextWindow is the number of characters kept on each side of a
// table placeholder
const DefaultContextWindow = 300

// ContextMarker stands in for the table inside its context window
const ContextMarker = "[TABLE]"

// ExtractContext returns the text around the placeholder of table id: up to
// window characters before and after it, with the placeholder replaced by
// ContextMarker. If the placeholder is absent the first window characters
// of text are returned. Windows count runes, not bytes.
func ExtractContext(text, id string, window int) string {
	if window < 0 {
		window = 0
	}

	placeholder := ocr.Placeholder(id)
	pos := strings.Index(text, placeholder)
	if pos < 0 {
		return headRunes(text, window)
	}

	before := tailRunes(text[:pos], window)
	after := headRunes(text[pos+len(placeholder):], window)

	return strings.ReplaceAll(before+placeholder+after, placeholder, ContextMarker)
}

func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func tailRunes(s string, n int) string {
	i := len(s)
	for count := 0; count < n && i > 0; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
