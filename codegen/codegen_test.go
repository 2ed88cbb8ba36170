package codegen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureConstants() Constants {
	return Constants{
		BuildTime: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		BuildID:   "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5",
		Custom: map[string]any{
			"version":    "1.4.2",
			"apiHost":    "api.example.com",
			"retries":    3,
			"pi":         json.Number("3.14159"),
			"debug":      false,
			"nothing":    nil,
			"releasedAt": time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC),
			"flags":      []any{"alpha", "beta"},
			"limits":     map[string]any{"rps": 100, "burst": 250},
		},
	}
}

func TestRender_TypeScript(t *testing.T) {
	expected := `// Code generated by buildgate. DO NOT EDIT.

export const buildTime = new Date("2023-11-14T22:13:20Z");
export const buildId = "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5";
export const custom = {
  "apiHost": "api.example.com",
  "debug": false,
  "flags": [
    "alpha",
    "beta",
  ],
  "limits": {
    "burst": 250,
    "rps": 100,
  },
  "nothing": null,
  "pi": 3.14159,
  "releasedAt": new Date("2023-11-01T09:00:00Z"),
  "retries": 3,
} as const;
`

	data, err := Render(fixtureConstants(), FormatTS)
	require.NoError(t, err)
	assert.Equal(t, expected, string(data))
}

func TestRender_JSON(t *testing.T) {
	expected := `{
  "buildTime": "2023-11-14T22:13:20Z",
  "buildId": "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5",
  "custom": {
    "apiHost": "api.example.com",
    "debug": false,
    "flags": [
      "alpha",
      "beta"
    ],
    "limits": {
      "burst": 250,
      "rps": 100
    },
    "nothing": null,
    "pi": 3.14159,
    "releasedAt": "2023-11-01T09:00:00Z",
    "retries": 3
  }
}
`

	data, err := Render(fixtureConstants(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, expected, string(data))
}

func TestRender(t *testing.T) {
	t.Run("it defaults to TypeScript", func(t *testing.T) {
		viaDefault, err := Render(fixtureConstants(), "")
		require.NoError(t, err)
		viaTS, err := Render(fixtureConstants(), FormatTS)
		require.NoError(t, err)
		assert.Equal(t, viaTS, viaDefault)
	})

	t.Run("it rejects an unknown format", func(t *testing.T) {
		data, err := Render(fixtureConstants(), Format("yaml"))
		assert.Nil(t, data)
		assert.EqualError(t, err, `unsupported output format "yaml": supported formats are ts and json`)
	})

	t.Run("it omits the custom export when the tree is nil", func(t *testing.T) {
		data, err := Render(Constants{
			BuildTime: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			BuildID:   "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5",
		}, FormatTS)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "export const custom")

		jsonData, err := Render(Constants{
			BuildTime: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			BuildID:   "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5",
		}, FormatJSON)
		require.NoError(t, err)
		assert.NotContains(t, string(jsonData), "custom")
	})

	t.Run("it renders identically across runs", func(t *testing.T) {
		first, err := Render(fixtureConstants(), FormatTS)
		require.NoError(t, err)
		second, err := Render(fixtureConstants(), FormatTS)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("it rejects unsupported leaves without partial output", func(t *testing.T) {
		broken := Constants{
			BuildTime: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
			BuildID:   "0b879fa2-7e53-4c29-b9c1-0d4e6a31f0a5",
			Custom:    map[string]any{"handler": func() {}},
		}

		data, err := Render(broken, FormatTS)
		assert.Nil(t, data)
		assert.ErrorContains(t, err, "value of type func() cannot be rendered")

		data, err = Render(broken, FormatJSON)
		assert.Nil(t, data)
		assert.ErrorContains(t, err, "unsupported type")
	})
}

func TestNew(t *testing.T) {
	custom := map[string]any{"version": "1.0.0"}
	constants := New(custom)

	_, err := uuid.Parse(constants.BuildID)
	assert.NoError(t, err, "BuildID should be a valid UUID")

	assert.Equal(t, time.UTC, constants.BuildTime.Location())
	assert.Zero(t, constants.BuildTime.Nanosecond())
	assert.WithinDuration(t, time.Now().UTC(), constants.BuildTime, time.Minute)
	assert.Equal(t, custom, constants.Custom)
}

func TestWriteFile(t *testing.T) {
	t.Run("it creates missing directories and writes the artifact", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "generated", "constants.ts")

		err := WriteFile(path, []byte("export const buildId = \"x\";\n"))
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "export const buildId = \"x\";\n", string(content))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("it leaves no temporary files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "constants.ts")

		require.NoError(t, WriteFile(path, []byte("a\n")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "constants.ts", entries[0].Name())
	})

	t.Run("it replaces an existing artifact", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "constants.ts")

		require.NoError(t, WriteFile(path, []byte("old\n")))
		require.NoError(t, WriteFile(path, []byte("new\n")))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(content))
	})

	t.Run("it reports directory creation failures", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

		err := WriteFile(filepath.Join(blocker, "constants.ts"), []byte("a\n"))
		assert.ErrorContains(t, err, "create output directory")
	})
}
