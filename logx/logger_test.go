package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	l := New()
	l.SetOutput(buf)
	l.SetColored(false)
	l.SetShowCaller(false)
	return l
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" warning ")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN]: shown 1")
}

func TestOffLevelSilencesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetLevel(OffLevel)

	l.Error("nope")
	assert.Empty(t, buf.String())
}

func TestWithPrefixesShareSink(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.With("loader").With("caption").Info("hello")
	assert.Contains(t, buf.String(), "loader.caption [INFO]: hello")

	l.SetLevel(ErrorLevel)
	l.With("loader").Info("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetFormat(FormatJSON)

	l.With("cache").Info("saved %s", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "saved abc", entry["message"])
	assert.Equal(t, "cache", entry["prefix"])
}

func TestPercentInArgumentIsNotFormatted(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Info("%s", "100% done")
	assert.Contains(t, buf.String(), "100% done")
}

func TestConcurrentWritesProduceWholeLines(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Info("line %d", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatCloudWatch, ParseFormat("cloudwatch"))
	assert.Equal(t, FormatConsole, ParseFormat("anything"))
}
