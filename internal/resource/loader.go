// Package resource resolves named configuration resources into bytes.
//
// A location is either a path on disk, resolved against the loader's base
// directory unless absolute, or a "builtin:" name served from the templates
// compiled into the binary. A "file:" prefix is accepted and stripped.
package resource

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cache-factory/internal/common/errors"
)

const (
	// BuiltinPrefix selects a template embedded in the binary.
	BuiltinPrefix = "builtin:"
	filePrefix    = "file:"
)

// ErrNotFound is returned when a location does not resolve to any resource.
var ErrNotFound = stderrors.New("resource not found")

// Loader turns a location into the bytes it names.
type Loader interface {
	LoadStream(location string) ([]byte, error)
}

// FileLoader loads from the local filesystem and the builtin templates.
type FileLoader struct {
	baseDir string
	builtin fs.FS
}

// NewFileLoader creates a loader resolving relative paths against baseDir.
func NewFileLoader(baseDir string) *FileLoader {
	return &FileLoader{
		baseDir: baseDir,
		builtin: builtinFS,
	}
}

// LoadStream reads the resource at location. A missing resource yields an
// error wrapping ErrNotFound; any other read failure is returned as is.
func (l *FileLoader) LoadStream(location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.ConfigError("empty resource location")
	}

	if name, ok := strings.CutPrefix(location, BuiltinPrefix); ok {
		data, err := fs.ReadFile(l.builtin, name)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
			}
			return nil, err
		}
		return data, nil
	}

	path := strings.TrimPrefix(location, filePrefix)
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, err
	}
	return data, nil
}

// MapLoader serves resources from memory.
type MapLoader map[string][]byte

// LoadStream returns the bytes registered under location.
func (m MapLoader) LoadStream(location string) ([]byte, error) {
	data, ok := m[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	return data, nil
}
