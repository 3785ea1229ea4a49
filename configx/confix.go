package configx

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config represents the main configuration interface
type Config interface {
	// Get retrieves a configuration value by dotted key
	Get(key string) Value

	// Set sets a configuration value
	Set(key string, val any)

	// Has checks if a configuration key exists
	Has(key string) bool

	// AllSettings returns a copy of all settings
	AllSettings() map[string]any
}

// Source represents a configuration source
type Source interface {
	// Load loads configuration values from the source
	Load() (map[string]any, error)

	// Name returns the name of the source
	Name() string

	// Priority returns the priority of the source (higher values override lower)
	Priority() int
}

// Value wraps a configuration value and provides type conversion methods
type Value interface {
	IsSet() bool
	AsString() string
	AsStringDefault(def string) string
	AsInt() int
	AsIntDefault(def int) int
	AsFloatDefault(def float64) float64
	AsBool() bool
	AsBoolDefault(def bool) bool
	AsDurationDefault(def time.Duration) time.Duration
}

const (
	PriorityDefault = 10 // Lowest priority
	PriorityDotEnv  = 20
	PriorityFile    = 30
	PriorityEnv     = 40
	PriorityMap     = 50 // Highest priority
)

// configuration is the concrete implementation of Config
type configuration struct {
	sync.RWMutex
	values map[string]any
}

// Builder provides a fluent API for building configuration
type Builder struct {
	sources     []Source
	requiredEnv []string
}

// NewBuilder creates a new configuration builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithDefaults adds default values
func (b *Builder) WithDefaults(defaults map[string]any) *Builder {
	b.sources = append(b.sources, NewMapSource(defaults, "defaults", PriorityDefault))
	return b
}

// FromDotEnv adds a .env file source; a missing file is not an error
func (b *Builder) FromDotEnv(path, prefix string) *Builder {
	b.sources = append(b.sources, NewDotEnvSource(path, prefix, PriorityDotEnv))
	return b
}

// FromFile adds a TOML file source
func (b *Builder) FromFile(path string) *Builder {
	b.sources = append(b.sources, NewTOMLFileSource(path, PriorityFile))
	return b
}

// FromEnv adds an environment variable source
func (b *Builder) FromEnv(prefix string) *Builder {
	b.sources = append(b.sources, NewEnvSource(prefix, PriorityEnv))
	return b
}

// FromMap adds a map source that overrides every other source
func (b *Builder) FromMap(values map[string]any, name string) *Builder {
	b.sources = append(b.sources, NewMapSource(values, name, PriorityMap))
	return b
}

// RequireEnv specifies environment variables that must be present
func (b *Builder) RequireEnv(envVars ...string) *Builder {
	b.requiredEnv = append(b.requiredEnv, envVars...)
	return b
}

// Build loads every source in priority order and merges the results
func (b *Builder) Build() (Config, error) {
	sources := make([]Source, len(b.sources))
	copy(sources, b.sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	cfg := &configuration{values: make(map[string]any)}
	for _, source := range sources {
		data, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("error loading from source %s: %w", source.Name(), err)
		}
		mergeMapRecursive(cfg.values, data)
	}

	// checked after loading so a .env file can provide them
	if err := requireEnv(b.requiredEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func requireEnv(envVars []string) error {
	var missing []string
	seen := make(map[string]bool)
	for _, env := range envVars {
		if seen[env] {
			continue
		}
		seen[env] = true
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Get retrieves a configuration value by key
func (c *configuration) Get(key string) Value {
	c.RLock()
	defer c.RUnlock()

	return &value{key: key, val: c.findValue(key)}
}

// findValue walks nested maps following a dotted key
func (c *configuration) findValue(key string) any {
	parts := strings.Split(strings.ToLower(key), ".")
	current := c.values

	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil
		}
		if i == len(parts)-1 {
			return v
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		current = m
	}

	return nil
}

// Set sets a configuration value
func (c *configuration) Set(key string, val any) {
	c.Lock()
	defer c.Unlock()

	setNested(c.values, strings.Split(strings.ToLower(key), "."), val)
}

// Has checks if a configuration key exists
func (c *configuration) Has(key string) bool {
	c.RLock()
	defer c.RUnlock()

	return c.findValue(key) != nil
}

// AllSettings returns all settings as a map
func (c *configuration) AllSettings() map[string]any {
	c.RLock()
	defer c.RUnlock()

	return deepCopyMap(c.values)
}

func setNested(dst map[string]any, parts []string, val any) {
	current := dst
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = val
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			result[k] = deepCopyMap(nested)
			continue
		}
		result[k] = v
	}
	return result
}

// mergeMapRecursive merges src into dst; maps merge, everything else replaces
func mergeMapRecursive(dst, src map[string]any) {
	for k, v := range src {
		k = strings.ToLower(k)
		srcMap, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if dstMap, ok := dst[k].(map[string]any); ok {
			mergeMapRecursive(dstMap, srcMap)
			continue
		}
		fresh := make(map[string]any)
		mergeMapRecursive(fresh, srcMap)
		dst[k] = fresh
	}
}

//-----------------------------------------------------------------------------
// Value implementation
//-----------------------------------------------------------------------------

type value struct {
	key string
	val any
}

// IsSet returns true if the value exists
func (v *value) IsSet() bool {
	return v.val != nil
}

// AsString returns the value as a string
func (v *value) AsString() string {
	return v.AsStringDefault("")
}

// AsStringDefault returns the value as a string or a default value
func (v *value) AsStringDefault(def string) string {
	if !v.IsSet() {
		return def
	}

	switch val := v.val.(type) {
	case string:
		if val == "" {
			return def
		}
		return val
	case int, int64, uint, uint64, float32, float64, bool:
		return fmt.Sprintf("%v", val)
	default:
		return def
	}
}

// AsInt returns the value as an int
func (v *value) AsInt() int {
	return v.AsIntDefault(0)
}

// AsIntDefault returns the value as an int or a default value
func (v *value) AsIntDefault(def int) int {
	if !v.IsSet() {
		return def
	}

	switch val := v.val.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}

	return def
}

// AsFloatDefault returns the value as a float64 or a default value
func (v *value) AsFloatDefault(def float64) float64 {
	if !v.IsSet() {
		return def
	}

	switch val := v.val.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}

	return def
}

// AsBool returns the value as a bool
func (v *value) AsBool() bool {
	return v.AsBoolDefault(false)
}

// AsBoolDefault returns the value as a bool or a default value
func (v *value) AsBoolDefault(def bool) bool {
	if !v.IsSet() {
		return def
	}

	switch val := v.val.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		switch strings.ToLower(val) {
		case "yes", "y", "on":
			return true
		case "no", "n", "off":
			return false
		}
	}

	return def
}

// AsDurationDefault returns the value as a duration or a default value.
// Bare numbers are read as milliseconds.
func (v *value) AsDurationDefault(def time.Duration) time.Duration {
	if !v.IsSet() {
		return def
	}

	switch val := v.val.(type) {
	case time.Duration:
		return val
	case int, int64, float64:
		return time.Duration(v.AsInt()) * time.Millisecond
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	}

	return def
}
