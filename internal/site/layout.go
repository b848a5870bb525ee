// Package site describes the on-disk site package the server reads its
// static assets from, and knows how to build and verify it.
package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingRoot is returned when the site root directory does not exist.
	ErrMissingRoot = errors.New("site root not found")
	// ErrMissingPkg is returned when the package directory is absent.
	ErrMissingPkg = errors.New("site package directory not found")
	// ErrMissingBundle is returned when the package has no stylesheet for the output name.
	ErrMissingBundle = errors.New("site bundle not found")
)

// Layout is the directory contract shared by the build and the server.
type Layout struct {
	Root       string
	PkgDir     string
	OutputName string
}

// PkgPath returns the filesystem path of the package directory.
func (l Layout) PkgPath() string {
	return filepath.Join(l.Root, l.PkgDir)
}

// BundlePath returns the filesystem path of the bundle file with the given extension.
func (l Layout) BundlePath(ext string) string {
	return filepath.Join(l.PkgPath(), l.OutputName+ext)
}

// StylesheetHref is the URL the page links for the bundle stylesheet.
func (l Layout) StylesheetHref() string {
	return "/" + path.Join(l.PkgDir, l.OutputName+".css")
}

// ScriptHref is the URL the page loads the bundle script from.
func (l Layout) ScriptHref() string {
	return "/" + path.Join(l.PkgDir, l.OutputName+".js")
}

// Verify checks that the layout on disk matches what the server was told.
// A mismatch means assets would fail to resolve at request time, so it is
// reported at startup instead.
func (l Layout) Verify() error {
	if err := isDir(l.Root); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingRoot, l.Root, err)
	}
	if err := isDir(l.PkgPath()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingPkg, l.PkgPath(), err)
	}
	if _, err := os.Stat(l.BundlePath(".css")); err != nil {
		return fmt.Errorf("%w: %s (was the site built with output name %q?)", ErrMissingBundle, l.BundlePath(".css"), l.OutputName)
	}
	return nil
}

// Open resolves a request path to a regular file under the site root.
// Directories and anything outside the root are reported as fs.ErrNotExist.
func (l Layout) Open(urlPath string) (*os.File, fs.FileInfo, error) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.Contains(clean, "\x00") {
		return nil, nil, fs.ErrNotExist
	}
	full := filepath.Join(l.Root, filepath.FromSlash(clean))

	f, err := os.Open(full)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fs.ErrNotExist
	}
	return f, info, nil
}

func isDir(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	return nil
}
