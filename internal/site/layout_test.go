package site

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPackage() fstest.MapFS {
	return fstest.MapFS{
		"pkg/app.css":      {Data: []byte("body{}")},
		"pkg/app.js":       {Data: []byte("console.log(1)")},
		"pkg/app_bg.wasm":  {Data: []byte{0, 'a', 's', 'm'}},
		"css/extra.css":    {Data: []byte(".x{}")},
		"pkg/fonts/a.woff": {Data: []byte("font")},
	}
}

func TestBuildRenamesBundle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	l := Layout{Root: root, PkgDir: "pkg", OutputName: "leptos-todo"}

	written, err := Build(testPackage(), l)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"pkg/leptos-todo.css",
		"pkg/leptos-todo.js",
		"pkg/app_bg.wasm",
		"css/extra.css",
		"pkg/fonts/a.woff",
	}, written)

	data, err := os.ReadFile(l.BundlePath(".css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
	require.NoError(t, l.Verify())
}

func TestBuildCustomPkgDir(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root, PkgDir: "assets", OutputName: "demo"}

	_, err := Build(testPackage(), l)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "assets", "demo.css"))
	assert.FileExists(t, filepath.Join(root, "assets", "fonts", "a.woff"))
	assert.NoDirExists(t, filepath.Join(root, "pkg"))
	assert.Equal(t, "/assets/demo.css", l.StylesheetHref())
	assert.Equal(t, "/assets/demo.js", l.ScriptHref())
}

func TestBuildRequiresOutputName(t *testing.T) {
	_, err := Build(testPackage(), Layout{Root: t.TempDir(), PkgDir: "pkg"})
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root, PkgDir: "pkg", OutputName: "leptos-todo"}
	_, err := Build(testPackage(), l)
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, l.Verify())
	})

	t.Run("missing root", func(t *testing.T) {
		bad := l
		bad.Root = filepath.Join(root, "nope")
		assert.ErrorIs(t, bad.Verify(), ErrMissingRoot)
	})

	t.Run("missing pkg dir", func(t *testing.T) {
		bad := l
		bad.PkgDir = "dist"
		assert.ErrorIs(t, bad.Verify(), ErrMissingPkg)
	})

	t.Run("output name mismatch", func(t *testing.T) {
		bad := l
		bad.OutputName = "other"
		assert.ErrorIs(t, bad.Verify(), ErrMissingBundle)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(root, "file")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		bad := l
		bad.Root = file
		assert.ErrorIs(t, bad.Verify(), ErrMissingRoot)
	})
}

func TestOpen(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	l := Layout{Root: root, PkgDir: "pkg", OutputName: "leptos-todo"}
	_, err := Build(testPackage(), l)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644))

	f, info, err := l.Open("/pkg/leptos-todo.css")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
	assert.Equal(t, int64(len("body{}")), info.Size())

	for _, p := range []string{"/", "/pkg", "/../secret.txt", "/pkg/../../secret.txt", "/missing.css"} {
		_, _, err := l.Open(p)
		assert.True(t, errors.Is(err, fs.ErrNotExist), "path %q: %v", p, err)
	}
}
