// Package dispatch renders and writes the root/bin/texbld script that forwards
// every invocation to the current build.
package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/texbld/texbld-manager/internal/layout"
	"github.com/texbld/texbld-manager/internal/models"
)

// Writer produces dispatch scripts for one root.
type Writer struct {
	layout layout.Layout
	python string
}

// NewWriter returns a Writer. python is the interpreter nightly builds run under.
func NewWriter(l layout.Layout, python string) *Writer {
	return &Writer{layout: l, python: python}
}

// Path returns the fixed location of the dispatch script.
func (w *Writer) Path() string {
	return w.layout.DispatchScriptPath()
}

// Render returns the script content for build. The output depends only on the
// build's identity and channel, so re-rendering the same build is byte-identical.
func (w *Writer) Render(build *models.Build) string {
	var target string
	if build.IsNightly() {
		target = shellQuote(w.python) + " " + shellQuote(w.layout.NightlyArchivePath(build.ID))
	} else {
		target = shellQuote(w.layout.StableEntryPoint(build.ID))
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# texbld %s, managed by texbld-manager. Do not edit.\n", build.Label())
	fmt.Fprintf(&b, "exec %s \"$@\"\n", target)
	return b.String()
}

// Write renders the script for build and installs it atomically.
func (w *Writer) Write(build *models.Build) error {
	return WriteFileAtomic(w.Path(), []byte(w.Render(build)), 0o755)
}

// Read returns the installed script content, or "" when there is none.
func (w *Writer) Read() (string, error) {
	b, err := os.ReadFile(w.Path())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", &models.FilesystemError{Op: "read", Path: w.Path(), Err: err}
	}
	return string(b), nil
}

// WriteFileAtomic writes data to a temp file beside path, sets perm, then
// renames it over path. Readers see the old file or the new one, never a mix.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &models.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &models.FilesystemError{Op: "create", Path: dir, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &models.FilesystemError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// shellQuote wraps s in single quotes for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
