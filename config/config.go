// Package config provides the flat key/value configuration source read once at
// process start. Values are plain strings; typed lookups log and fall back
// instead of failing.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory when none is given.
const DefaultPath = "TestFramework.config"

// Well-known keys.
const (
	KeyLogLevel       = "LogLevel"
	KeyDumpLogsToFile = "DumpLogsToFile"
	KeyLogPath        = "LogPath"
	KeyOutputRootPath = "TestFrameworkOutputRootPath"
)

// Format identifies the syntax of a config file.
type Format string

const (
	FormatNative Format = "native" // "key: value" lines, '#' starts a comment
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatNative
	}
}

// Source is a read-only mapping from key to value.
type Source struct {
	path   string
	params map[string]string
}

// New creates a Source from an in-memory map.
func New(params map[string]string) *Source {
	s := &Source{params: make(map[string]string, len(params))}
	for k, v := range params {
		s.params[k] = v
	}
	return s
}

// Load reads the config file at path. A missing or malformed file is logged
// and yields an empty Source, so lookups report absent keys individually.
func Load(logger log.Logger, path string) *Source {
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error("Error reading the config file", "path", path, "err", err)
		return &Source{path: path, params: map[string]string{}}
	}
	defer f.Close()

	params, err := Parse(f, FormatFromPath(path))
	if err != nil {
		logger.Error("Error parsing the config file", "path", path, "err", err)
		return &Source{path: path, params: map[string]string{}}
	}

	logger.Info("Config loaded", "path", path, "params", len(params))
	return &Source{path: path, params: params}
}

// Parse decodes a config document in the given format.
func Parse(r io.Reader, format Format) (map[string]string, error) {
	switch format {
	case FormatYAML:
		var raw map[string]any
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		return flatten(raw)
	case FormatTOML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading toml: %w", err)
		}
		var raw map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		return flatten(raw)
	default:
		return parseNative(r)
	}
}

func parseNative(r io.Reader) (map[string]string, error) {
	params := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		params[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return params, nil
}

// flatten converts a decoded document into string values; only scalars are accepted.
func flatten(raw map[string]any) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			params[k] = val
		case bool, int, int64, uint64, float64:
			params[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("key %q: unsupported value of type %T", k, v)
		}
	}
	return params, nil
}

// Path returns the file the source was loaded from, if any.
func (s *Source) Path() string {
	return s.path
}

// Get returns the value for key and whether it was present.
func (s *Source) Get(key string) (string, bool) {
	v, ok := s.params[key]
	return v, ok
}

// GetString is Get that logs an absent key at error level.
func (s *Source) GetString(logger log.Logger, key string) (string, bool) {
	v, ok := s.params[key]
	if !ok {
		logger.Error("The configuration parameter could not be found", "key", key)
	}
	return v, ok
}

// GetBool parses the value for key. Absent or unparsable values are logged
// and read as false.
func (s *Source) GetBool(logger log.Logger, key string) bool {
	v, ok := s.GetString(logger, key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Error("Could not parse the configuration parameter to bool, using false", "key", key, "value", v)
		return false
	}
	return b
}

// Keys returns all keys in sorted order.
func (s *Source) Keys() []string {
	keys := make([]string, 0, len(s.params))
	for k := range s.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
