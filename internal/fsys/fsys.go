// Package fsys is the filesystem collaborator of the destination registry:
// folder creation, append-only file opening and path expansion. The routing
// engine only sees the Opener interface.
package fsys

//go:generate mockgen -destination=mocks/mock_fsys.go -package=mocks github.com/agbru/catlog/internal/fsys Opener,File

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// File is an append-only sink handle.
type File interface {
	io.Writer
	io.Closer
	Sync() error
}

// Opener creates folders and opens files for appending.
type Opener interface {
	EnsureFolderExists(path string) error
	OpenAppend(path string) (File, error)
}

// Folders is the subset of filesystem operations used by FolderValidator.
type Folders interface {
	Exists(path string) (bool, error)
	EnsureFolderExists(path string) error
}

// OS implements Opener and Folders on the local filesystem.
type OS struct {
	DirMode  os.FileMode
	FileMode os.FileMode
}

// NewOS returns an OS filesystem with 0755 folders and 0644 files.
func NewOS() *OS {
	return &OS{DirMode: 0o755, FileMode: 0o644}
}

// EnsureFolderExists creates path and any missing parents. It fails when
// path exists and is not a directory.
func (o *OS) EnsureFolderExists(path string) error {
	if path == "" || path == "." {
		return nil
	}
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, o.DirMode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// OpenAppend opens path for appending, creating it if needed. The parent
// folder must already exist.
func (o *OS) OpenAppend(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, o.FileMode)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Exists reports whether path exists.
func (o *OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ExpandPath expands a leading "~" to the user's home directory and, for
// relative results, joins them onto base when base is not empty.
func ExpandPath(path, base string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if base != "" && !filepath.IsAbs(expanded) {
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}
