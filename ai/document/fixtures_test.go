package document

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/doccraft/ai/llm"
	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/stretchr/testify/require"
)

const revenueTable = `<table><thead><tr><th>Region</th><th>2023</th><th>2024</th></tr></thead>` +
	`<tbody><tr><td>North</td><td>10</td><td>12</td></tr><tr><td>South</td><td>7</td><td>9</td></tr></tbody></table>`

const headcountTable = `<table><tr><th>Department</th><th>Staff</th></tr><tr><td>Sales</td><td>40</td></tr></table>`

// fakeOCR counts calls and returns a fixed result
type fakeOCR struct {
	calls   atomic.Int32
	result  *ocr.Result
	err     error
	lastRef ocr.Reference
	mu      sync.Mutex
}

func (f *fakeOCR) Process(_ context.Context, ref ocr.Reference, _ ...ocr.Option) (*ocr.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastRef = ref
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func ocrResult(t *testing.T, pages ...ocr.Page) *ocr.Result {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"model": "mistral-ocr-latest", "pages": pages})
	require.NoError(t, err)
	res, err := ocr.Decode(raw)
	require.NoError(t, err)
	return res
}

// fakeModel records concurrency and answers with a caption derived from the prompt
type fakeModel struct {
	mu     sync.Mutex
	active int
	peak   int
	calls  int
	delay  time.Duration
	reply  func(prompt string) (string, error)
}

func (m *fakeModel) Chat(ctx context.Context, msgs []llm.Message, opts ...llm.Option) (llm.Response, error) {
	m.mu.Lock()
	m.active++
	m.calls++
	if m.active > m.peak {
		m.peak = m.active
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}

	prompt := msgs[len(msgs)-1].Content
	if m.reply != nil {
		content, err := m.reply(prompt)
		return llm.Response{Message: llm.Message{Role: llm.RoleAssistant, Content: content}}, err
	}
	return llm.Response{Message: llm.Message{Role: llm.RoleAssistant, Content: `{"description":"A table of figures by category."}`}}, nil
}

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *fakeModel) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func captionFor(prompt string) string {
	if strings.Contains(prompt, "Region") {
		return `{"description":"Revenue by region across two years."}`
	}
	return `{"description":"Headcount by department."}`
}
