package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNative(t *testing.T) {
	doc := `# harness settings
LogLevel: Debug
DumpLogsToFile: true   # trailing comment
LogPath: out/log.html
Empty:
: orphan
not a pair
TestFrameworkOutputRootPath: C:\runs
`
	params, err := Parse(strings.NewReader(doc), FormatNative)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"LogLevel":                    "Debug",
		"DumpLogsToFile":              "true",
		"LogPath":                     "out/log.html",
		"TestFrameworkOutputRootPath": `C:\runs`,
	}, params)
}

func TestParseStructuredFormats(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		doc    string
	}{
		{
			name:   "yaml",
			format: FormatYAML,
			doc:    "LogLevel: OK\nDumpLogsToFile: false\nRetries: 3\n",
		},
		{
			name:   "toml",
			format: FormatTOML,
			doc:    "LogLevel = \"OK\"\nDumpLogsToFile = false\nRetries = 3\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params, err := Parse(strings.NewReader(tc.doc), tc.format)
			require.NoError(t, err)
			assert.Equal(t, "OK", params[KeyLogLevel])
			assert.Equal(t, "false", params[KeyDumpLogsToFile])
			assert.Equal(t, "3", params["Retries"])
		})
	}
}

func TestParseRejectsNestedValues(t *testing.T) {
	_, err := Parse(strings.NewReader("Logging:\n  level: debug\n"), FormatYAML)
	require.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatNative, FormatFromPath(DefaultPath))
	assert.Equal(t, FormatYAML, FormatFromPath("harness.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("harness.YAML"))
	assert.Equal(t, FormatTOML, FormatFromPath("harness.toml"))
}

func TestLoad(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "harness.toml")
		require.NoError(t, os.WriteFile(path, []byte("LogLevel = \"Warning\"\n"), 0644))

		src := Load(logger, path)
		assert.Equal(t, path, src.Path())
		v, ok := src.Get(KeyLogLevel)
		require.True(t, ok)
		assert.Equal(t, "Warning", v)
	})

	t.Run("missing file yields empty source", func(t *testing.T) {
		src := Load(logger, filepath.Join(t.TempDir(), "absent.config"))
		assert.Empty(t, src.Keys())
		_, ok := src.Get(KeyLogLevel)
		assert.False(t, ok)
	})
}

func TestTypedLookups(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())
	src := New(map[string]string{
		"On":    "true",
		"Off":   "0",
		"Bogus": "maybe",
		"Name":  "sample",
	})

	assert.True(t, src.GetBool(logger, "On"))
	assert.False(t, src.GetBool(logger, "Off"))
	assert.False(t, src.GetBool(logger, "Bogus"))
	assert.False(t, src.GetBool(logger, "Missing"))

	v, ok := src.GetString(logger, "Name")
	assert.True(t, ok)
	assert.Equal(t, "sample", v)
	_, ok = src.GetString(logger, "Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Bogus", "Name", "Off", "On"}, src.Keys())
}
