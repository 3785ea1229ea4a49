package configx

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables source
// ===========================

// EnvSource loads configuration from environment variables.
// PREFIX_SECTION_KEY becomes section.key.
type EnvSource struct {
	prefix   string
	priority int
}

// NewEnvSource creates a new environment variable source
func NewEnvSource(prefix string, priority int) Source {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
	}
}

// Load loads configuration values from environment variables
func (s *EnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)

	for _, env := range os.Environ() {
		key, val, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if s.prefix != "" {
			if !strings.HasPrefix(key, s.prefix) {
				continue
			}
			key = strings.TrimPrefix(key, s.prefix)
		}
		if key == "" {
			continue
		}
		setNested(result, strings.Split(strings.ToLower(key), "_"), convertValue(val))
	}

	return result, nil
}

// Name returns the name of the source
func (s *EnvSource) Name() string {
	return fmt.Sprintf("env(%s)", s.prefix)
}

// Priority returns the priority of the source
func (s *EnvSource) Priority() int {
	return s.priority
}

// DotEnv file source
// ===========================

// DotEnvSource reads a .env file. Every entry is exported to the process
// environment unless already set; entries carrying the prefix also become
// configuration keys.
type DotEnvSource struct {
	path     string
	prefix   string
	priority int
}

// NewDotEnvSource creates a new .env file source
func NewDotEnvSource(path, prefix string, priority int) Source {
	return &DotEnvSource{
		path:     path,
		prefix:   prefix,
		priority: priority,
	}
}

// Load loads configuration values from a .env file
func (s *DotEnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)

	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		val = unquote(strings.TrimSpace(val))

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, val)
		}

		if s.prefix != "" && strings.HasPrefix(key, s.prefix) {
			trimmed := strings.ToLower(strings.TrimPrefix(key, s.prefix))
			setNested(result, strings.Split(trimmed, "_"), convertValue(val))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	return result, nil
}

// Name returns the name of the source
func (s *DotEnvSource) Name() string {
	return fmt.Sprintf("dotenv(%s)", s.path)
}

// Priority returns the priority of the source
func (s *DotEnvSource) Priority() int {
	return s.priority
}

// TOML file source
// ===========================

// TOMLFileSource loads configuration from a TOML file
type TOMLFileSource struct {
	path     string
	priority int
}

// NewTOMLFileSource creates a new TOML file source
func NewTOMLFileSource(path string, priority int) Source {
	return &TOMLFileSource{
		path:     path,
		priority: priority,
	}
}

// Load parses the TOML file into nested maps
func (s *TOMLFileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	result := make(map[string]any)
	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return result, nil
}

// Name returns the name of the source
func (s *TOMLFileSource) Name() string {
	return fmt.Sprintf("toml(%s)", s.path)
}

// Priority returns the priority of the source
func (s *TOMLFileSource) Priority() int {
	return s.priority
}

// Map Source implementation
// ===========================

// MapSource loads configuration from a map
type MapSource struct {
	values   map[string]any
	name     string
	priority int
}

// NewMapSource creates a new map source. Dotted keys are expanded.
func NewMapSource(values map[string]any, name string, priority int) Source {
	expanded := make(map[string]any)
	for k, v := range values {
		if nested, ok := v.(map[string]any); ok {
			v = deepCopyMap(nested)
		}
		setNested(expanded, strings.Split(strings.ToLower(k), "."), v)
	}
	return &MapSource{
		values:   expanded,
		name:     name,
		priority: priority,
	}
}

// Load loads configuration values from the map
func (s *MapSource) Load() (map[string]any, error) {
	return deepCopyMap(s.values), nil
}

// Name returns the name of the source
func (s *MapSource) Name() string {
	return s.name
}

// Priority returns the priority of the source
func (s *MapSource) Priority() int {
	return s.priority
}

// Helper functions
// ===========================

// convertValue attempts to convert a string value to a more appropriate type
func convertValue(val string) any {
	switch strings.ToLower(val) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.Atoi(val); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}

	return val
}

func unquote(val string) string {
	if len(val) > 1 && (val[0] == '"' && val[len(val)-1] == '"' ||
		val[0] == '\'' && val[len(val)-1] == '\'') {
		return val[1 : len(val)-1]
	}
	return val
}
