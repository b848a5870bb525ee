package site

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// defaultBundle is the base name of bundle files in the embedded package.
const defaultBundle = "app"

// Build writes the site package in src to l.Root, placing src's pkg/
// directory at l.PkgDir and renaming pkg/app.* to pkg/<OutputName>.*.
// It returns the paths written, relative to l.Root.
func Build(src fs.FS, l Layout) ([]string, error) {
	if l.OutputName == "" {
		return nil, fmt.Errorf("output name is required")
	}
	if err := os.MkdirAll(l.PkgPath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create package directory: %w", err)
	}

	var written []string
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := target(p, l)
		dest := filepath.Join(l.Root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}

		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build site: %w", err)
	}
	return written, nil
}

// target maps a path in the embedded package to its path in the layout.
func target(p string, l Layout) string {
	dir, file := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	if dir != "pkg" && !strings.HasPrefix(dir, "pkg/") {
		return p
	}

	dir = l.PkgDir + strings.TrimPrefix(dir, "pkg")
	if ext := path.Ext(file); strings.TrimSuffix(file, ext) == defaultBundle {
		file = l.OutputName + ext
	}
	return path.Join(dir, file)
}
