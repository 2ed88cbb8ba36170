// Package codegen renders a validated constants tree into the generated
// build-time artifact. Rendering is deterministic: mapping keys are emitted
// in sorted order, dates in RFC 3339, and the whole artifact is produced in
// memory before anything touches the filesystem, so a rejected value never
// leaves a partial file behind.
package codegen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Format selects the artifact flavor produced by Render.
type Format string

const (
	// FormatTS renders an ES module with typed constant exports.
	FormatTS Format = "ts"

	// FormatJSON renders a plain JSON document.
	FormatJSON Format = "json"
)

// Constants is the snapshot handed to the renderer after the gate has
// cleared it. Custom holds the caller-supplied tree and may be nil.
type Constants struct {
	BuildTime time.Time
	BuildID   string
	Custom    any
}

// New stamps a Constants snapshot for the current build. The timestamp is
// truncated to whole seconds in UTC so both output formats render it the
// same way.
func New(custom any) Constants {
	return Constants{
		BuildTime: time.Now().UTC().Truncate(time.Second),
		BuildID:   uuid.NewString(),
		Custom:    custom,
	}
}

// Render produces the artifact bytes for the requested format. An empty
// format means FormatTS.
func Render(c Constants, format Format) ([]byte, error) {
	switch format {
	case FormatTS, "":
		return renderTS(c)
	case FormatJSON:
		return renderJSON(c)
	default:
		return nil, fmt.Errorf("unsupported output format %q: supported formats are %s and %s", format, FormatTS, FormatJSON)
	}
}

func renderJSON(c Constants) ([]byte, error) {
	envelope := struct {
		BuildTime time.Time `json:"buildTime"`
		BuildID   string    `json:"buildId"`
		Custom    any       `json:"custom,omitempty"`
	}{c.BuildTime, c.BuildID, c.Custom}

	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render constants: %w", err)
	}
	return append(encoded, '\n'), nil
}

// WriteFile writes the artifact atomically: the bytes go to a temporary
// file in the target directory which is then renamed over the destination.
// Missing directories are created.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set output file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace output file: %w", err)
	}
	return nil
}
