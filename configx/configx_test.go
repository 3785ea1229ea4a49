package configx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultsOnly(t *testing.T) {
	cfg, err := NewBuilder().
		WithDefaults(map[string]any{
			"caption.concurrency": 5,
			"caption.enabled":     true,
			"fetch.timeout":       "30s",
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Get("caption.concurrency").AsInt())
	assert.True(t, cfg.Get("caption.enabled").AsBool())
	assert.Equal(t, 30*time.Second, cfg.Get("fetch.timeout").AsDurationDefault(time.Second))
	assert.False(t, cfg.Get("caption.missing").IsSet())
	assert.Equal(t, "x", cfg.Get("caption.missing").AsStringDefault("x"))
}

func TestBuild_EnvOverridesFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doccraft.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[caption]
concurrency = 3
window = 120

[cache]
dir = "/tmp/from-file"
`), 0o644))

	t.Setenv("CFGTEST_CAPTION_CONCURRENCY", "8")

	cfg, err := NewBuilder().
		WithDefaults(map[string]any{
			"caption.concurrency": 5,
			"caption.window":      300,
			"cache.dir":           "caches",
			"ocr.model":           "mistral-ocr-latest",
		}).
		FromFile(file).
		FromEnv("CFGTEST_").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Get("caption.concurrency").AsInt())
	assert.Equal(t, 120, cfg.Get("caption.window").AsInt())
	assert.Equal(t, "/tmp/from-file", cfg.Get("cache.dir").AsString())
	assert.Equal(t, "mistral-ocr-latest", cfg.Get("ocr.model").AsString())
}

func TestBuild_MissingFileFails(t *testing.T) {
	_, err := NewBuilder().FromFile(filepath.Join(t.TempDir(), "nope.toml")).Build()
	assert.Error(t, err)
}

func TestDotEnv_ExportsAndMapsPrefixedKeys(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte(`
# comment
DOTENVTEST_UNPREFIXED_KEY="secret value"
export CFGDOT_CAPTION_MODEL='openai:gpt-5-mini'
`), 0o644))

	t.Cleanup(func() {
		os.Unsetenv("DOTENVTEST_UNPREFIXED_KEY")
		os.Unsetenv("CFGDOT_CAPTION_MODEL")
	})

	cfg, err := NewBuilder().FromDotEnv(file, "CFGDOT_").Build()
	require.NoError(t, err)

	assert.Equal(t, "secret value", os.Getenv("DOTENVTEST_UNPREFIXED_KEY"))
	assert.Equal(t, "openai:gpt-5-mini", cfg.Get("caption.model").AsString())
}

func TestDotEnv_DoesNotOverrideExistingEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("DOTENVKEEP=fromfile\n"), 0o644))
	t.Setenv("DOTENVKEEP", "fromenv")

	_, err := NewBuilder().FromDotEnv(file, "").Build()
	require.NoError(t, err)
	assert.Equal(t, "fromenv", os.Getenv("DOTENVKEEP"))
}

func TestDotEnv_MissingFileIsIgnored(t *testing.T) {
	_, err := NewBuilder().FromDotEnv(filepath.Join(t.TempDir(), ".env"), "X_").Build()
	assert.NoError(t, err)
}

func TestRequireEnv(t *testing.T) {
	_, err := NewBuilder().RequireEnv("CFGTEST_SURELY_UNSET_VAR").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFGTEST_SURELY_UNSET_VAR")
}

func TestSetAndHas(t *testing.T) {
	cfg, err := NewBuilder().Build()
	require.NoError(t, err)

	cfg.Set("server.port", "9090")
	assert.True(t, cfg.Has("server.port"))
	assert.Equal(t, 9090, cfg.Get("server.port").AsInt())

	all := cfg.AllSettings()
	all["server"].(map[string]any)["port"] = "1"
	assert.Equal(t, "9090", cfg.Get("server.port").AsString())
}

func TestValueConversions(t *testing.T) {
	v := &value{val: "yes"}
	assert.True(t, v.AsBool())

	v = &value{val: int64(2500)}
	assert.Equal(t, 2500*time.Millisecond, v.AsDurationDefault(0))
	assert.Equal(t, 2500.0, v.AsFloatDefault(0))

	v = &value{val: "not-a-number"}
	assert.Equal(t, 7, v.AsIntDefault(7))
}
