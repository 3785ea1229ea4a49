package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/doccraft/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captionJobs(n int) []CaptionJob {
	jobs := make([]CaptionJob, n)
	for i := range jobs {
		jobs[i] = CaptionJob{
			Page:    i/3 + 1,
			Table:   &Table{SourceID: fmt.Sprintf("tbl-%d.html", i), Markdown: "| Region |\n| --- |\n| North |"},
			Context: "context",
		}
	}
	return jobs
}

func TestEnrich_RespectsConcurrencyLimit(t *testing.T) {
	for _, limit := range []int{1, 3, 5} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			model := &fakeModel{delay: 15 * time.Millisecond}
			c := NewCaptioner(model, WithConcurrency(limit), WithCaptionLogger(logx.Discard()))

			jobs := captionJobs(20)
			warnings := c.Enrich(context.Background(), jobs)

			assert.Empty(t, warnings)
			assert.Equal(t, 20, model.Calls())
			assert.LessOrEqual(t, model.Peak(), limit)
			for _, job := range jobs {
				require.NotNil(t, job.Table.Caption)
				assert.Equal(t, "A table of figures by category.", *job.Table.Caption)
			}
		})
	}
}

func TestEnrich_DefaultConcurrencyIsFive(t *testing.T) {
	model := &fakeModel{delay: 10 * time.Millisecond}
	c := NewCaptioner(model, WithCaptionLogger(logx.Discard()))

	c.Enrich(context.Background(), captionJobs(12))
	assert.LessOrEqual(t, model.Peak(), DefaultCaptionConcurrency)
}

func TestNewCaptioner_RequestRateSurvivesConcurrency(t *testing.T) {
	c := NewCaptioner(&fakeModel{}, WithRequestRate(2), WithConcurrency(3))
	assert.Equal(t, 3, c.gate.Limit())
	assert.Equal(t, 2.0, c.gate.Rate())

	c = NewCaptioner(&fakeModel{}, WithConcurrency(3))
	assert.Zero(t, c.gate.Rate())
}

func TestEnrich_FailuresAreIsolated(t *testing.T) {
	model := &fakeModel{reply: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "BROKEN"):
			return "", errors.New("upstream 500")
		case strings.Contains(prompt, "GARBLED"):
			return "this is not json", nil
		case strings.Contains(prompt, "BLANK"):
			return `{"description": "   "}`, nil
		}
		return `{"description": "Fine caption."}`, nil
	}}
	c := NewCaptioner(model, WithCaptionLogger(logx.Discard()))

	jobs := []CaptionJob{
		{Page: 1, Table: &Table{SourceID: "ok-1", Markdown: "| a |"}},
		{Page: 1, Table: &Table{SourceID: "broken", Markdown: "| BROKEN |"}},
		{Page: 2, Table: &Table{SourceID: "garbled", Markdown: "| GARBLED |"}},
		{Page: 2, Table: &Table{SourceID: "blank", Markdown: "| BLANK |"}},
		{Page: 3, Table: &Table{SourceID: "ok-2", Markdown: "| b |"}},
	}
	warnings := c.Enrich(context.Background(), jobs)

	require.Len(t, warnings, 3)
	assert.Equal(t, []string{"broken", "garbled", "blank"},
		[]string{warnings[0].TableID, warnings[1].TableID, warnings[2].TableID})
	for _, w := range warnings {
		assert.Equal(t, ErrCodeCaptionFailed, w.Code)
	}

	assert.Equal(t, "Fine caption.", *jobs[0].Table.Caption)
	assert.Equal(t, "Fine caption.", *jobs[4].Table.Caption)
	assert.Nil(t, jobs[1].Table.Caption)
	assert.Nil(t, jobs[2].Table.Caption)
	assert.Nil(t, jobs[3].Table.Caption)
}

func TestEnrich_CaptionSetAtMostOnce(t *testing.T) {
	model := &fakeModel{}
	c := NewCaptioner(model, WithCaptionLogger(logx.Discard()))

	existing := "Already captioned."
	table := &Table{SourceID: "t1", Caption: &existing}
	warnings := c.Enrich(context.Background(), []CaptionJob{{Page: 1, Table: table}})

	assert.Empty(t, warnings)
	assert.Equal(t, 0, model.Calls())
	assert.Equal(t, "Already captioned.", *table.Caption)

	assert.False(t, table.SetCaption("other"))
	assert.Equal(t, "Already captioned.", *table.Caption)
}

func TestEnrich_CancelledContext(t *testing.T) {
	model := &fakeModel{delay: time.Second}
	c := NewCaptioner(model, WithConcurrency(1), WithCaptionLogger(logx.Discard()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	warnings := c.Enrich(ctx, captionJobs(3))
	assert.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Equal(t, ErrCodeCaptionFailed, w.Code)
	}
}

func TestEnrich_NoJobs(t *testing.T) {
	model := &fakeModel{}
	assert.Nil(t, NewCaptioner(model).Enrich(context.Background(), nil))
	assert.Equal(t, 0, model.Calls())
}

func TestPrompt(t *testing.T) {
	c := NewCaptioner(&fakeModel{})
	prompt := c.Prompt(CaptionJob{
		Table:   &Table{Markdown: "| Region | 2023 |\n| --- | --- |"},
		Context: "Revenue grew in [TABLE] as shown",
	})

	assert.Contains(t, prompt, "| Region | 2023 |")
	assert.Contains(t, prompt, "Revenue grew in [TABLE] as shown")
	assert.Contains(t, prompt, "Do not include specific numerical values")
	assert.Contains(t, prompt, "1-2 sentences")
	assert.Contains(t, prompt, "units or currencies")
}
