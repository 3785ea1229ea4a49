package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	pages := []*Page{
		{Number: 1, Markdown: "Preface\n\n## Annual *Report* 2024\n\n# Later", Tables: []*Table{{SourceID: "t1"}}},
		{Number: 2, Markdown: "# Not the title"},
	}

	doc := Assemble("https://example.com/report.pdf", pages)

	assert.Equal(t, "https://example.com/report.pdf", doc.Source)
	assert.Equal(t, "Annual Report 2024", doc.Title)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, 2, doc.Pages[1].Number)

	_, err := uuid.Parse(doc.ID)
	assert.NoError(t, err)
	_, err = uuid.Parse(doc.Pages[1].ID)
	assert.NoError(t, err)
	_, err = uuid.Parse(doc.Pages[0].Tables[0].ID)
	assert.NoError(t, err)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestAssemble_KeepsIDsAndHandlesEmpty(t *testing.T) {
	doc := Assemble("", []*Page{{ID: "p1", Number: 1, Markdown: "no heading"}})
	assert.Equal(t, "p1", doc.Pages[0].ID)
	assert.Empty(t, doc.Title)

	empty := Assemble("", nil)
	assert.NotNil(t, empty.Pages)
	assert.Empty(t, empty.Pages)
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Setext Title", FirstHeading("Setext Title\n============\n\nbody"))
	assert.Equal(t, "", FirstHeading("| a |\n| --- |\n| 1 |"))
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	caption := "Headcount by department."
	doc := Assemble("doc.pdf", []*Page{{Number: 1, Tables: []*Table{{SourceID: "t1", Caption: &caption}}}})

	data, err := doc.ToJSON()
	require.NoError(t, err)

	back, err := DocumentFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, caption, *back.Tables()[0].Caption)

	_, err = DocumentFromJSON([]byte("{"))
	assert.Error(t, err)
}
