package logfinder

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative slash paths) under a fresh temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func collect(t *testing.T, root string, opts Options) ([]string, []error) {
	t.Helper()
	var rels []string
	var errs []error
	for f, err := range Walk(root, opts) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rels = append(rels, filepath.ToSlash(f.RelPath))
	}
	return rels, errs
}

func TestCheck_Valid(t *testing.T) {
	dir := t.TempDir()

	got, err := Check(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, filepath.Clean(dir), got)
}

func TestCheck_NotExist(t *testing.T) {
	_, err := Check(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRoot))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCheck_NotADirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"app.log": "x"})

	_, err := Check(filepath.Join(root, "app.log"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRoot))
	assert.Contains(t, err.Error(), "not a directory")
}

func TestCheck_EmptyUsesWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := Check("")
	require.NoError(t, err)
	assert.Equal(t, wd, got)
}

func TestWalk_FiltersAndOrders(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.json":                "{}",
		"a.log":                 "line",
		"notes.txt":             "ignored",
		"nested/z.LOG":          "upper-case extension",
		"nested/deeper/c.log":   "line",
		"nested/deeper/c.log.1": "rotated, ignored",
	})

	rels, errs := collect(t, root, Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		"a.log",
		"b.json",
		"nested/deeper/c.log",
		"nested/z.LOG",
	}, rels)
}

func TestWalk_DirectoryBeforeLaterSiblings(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log":   "x",
		"a-c.log": "x",
		"a/b.log": "x",
	})

	rels, errs := collect(t, root, Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a/b.log", "a-c.log", "a.log"}, rels)
}

func TestWalk_ReportsLowerCasedExt(t *testing.T) {
	root := writeTree(t, map[string]string{"SERVER.LOG": "x"})

	for f, err := range Walk(root, Options{}) {
		require.NoError(t, err)
		assert.Equal(t, ".log", f.Ext)
		assert.Equal(t, filepath.Join(root, "SERVER.LOG"), f.Path)
	}
}

func TestWalk_SkipsOutputDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log":                               "x",
		"analysis_results/general_errors.log": "prior results",
		"nested/analysis_results/stale.json":  "prior results",
		"nested/app.json":                     "{}",
	})

	rels, errs := collect(t, root, Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a.log", "nested/app.json"}, rels)
}

func TestWalk_SkipPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log":       "x",
		"out/b.log":   "results",
		"other/c.log": "x",
	})

	rels, _ := collect(t, root, Options{SkipPaths: []string{filepath.Join(root, "out")}})
	assert.Equal(t, []string{"a.log", "other/c.log"}, rels)
}

func TestWalk_CustomExtensions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log":  "x",
		"b.txt":  "x",
		"c.json": "x",
	})

	rels, _ := collect(t, root, Options{Extensions: []string{"txt", ".LOG"}})
	assert.Equal(t, []string{"a.log", "b.txt"}, rels)
}

func TestWalk_Exclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log":                 "x",
		"archive/old.log":       "x",
		"svc/archive/older.log": "x",
		"svc/current.log":       "x",
		"debug/trace.json":      "x",
		"debug/keep.log":        "x",
	})

	rels, errs := collect(t, root, Options{Exclude: []string{"**/archive/**", "archive", "debug/*.json"}})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a.log", "debug/keep.log", "svc/current.log"}, rels)
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test requires Unix")
	}
	root := writeTree(t, map[string]string{"real.log": "x"})
	require.NoError(t, os.Symlink(filepath.Join(root, "real.log"), filepath.Join(root, "link.log")))

	rels, _ := collect(t, root, Options{})
	assert.Equal(t, []string{"real.log"}, rels)
}

func TestWalk_UnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test requires Unix")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := writeTree(t, map[string]string{
		"a/one.log":    "x",
		"b/secret.log": "x",
		"c/two.log":    "x",
	})
	locked := filepath.Join(root, "b")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	rels, errs := collect(t, root, Options{})
	assert.Equal(t, []string{"a/one.log", "c/two.log"}, rels)
	require.Len(t, errs, 1)

	var scanErr *ScanError
	require.True(t, errors.As(errs[0], &scanErr))
	assert.Equal(t, OpReadDir, scanErr.Op)
	assert.Equal(t, locked, scanErr.Path)
	assert.True(t, errors.Is(errs[0], os.ErrPermission))
}

func TestWalk_DirectoryRemovedDuringWalk(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/one.log":  "x",
		"b/gone.log": "x",
		"c/two.log":  "x",
	})
	removed := filepath.Join(root, "b")

	var rels []string
	var errs []error
	for f, err := range Walk(root, Options{}) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rels = append(rels, filepath.ToSlash(f.RelPath))
		if f.RelPath == filepath.Join("a", "one.log") {
			require.NoError(t, os.RemoveAll(removed))
		}
	}

	assert.Equal(t, []string{"a/one.log", "c/two.log"}, rels)
	require.Len(t, errs, 1)

	var scanErr *ScanError
	require.True(t, errors.As(errs[0], &scanErr))
	assert.Equal(t, OpReadDir, scanErr.Op)
	assert.Equal(t, removed, scanErr.Path)
	assert.True(t, errors.Is(errs[0], os.ErrNotExist))
}

func TestWalk_EarlyBreak(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log": "x",
		"b.log": "x",
		"c.log": "x",
	})

	var seen []string
	for f, err := range Walk(root, Options{}) {
		require.NoError(t, err)
		seen = append(seen, f.RelPath)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a.log", "b.log"}, seen)
}

func TestWalk_Restartable(t *testing.T) {
	root := writeTree(t, map[string]string{"a.log": "x", "b/c.json": "x"})
	seq := Walk(root, Options{})

	var first, second []string
	for f := range seq {
		first = append(first, f.RelPath)
	}
	for f := range seq {
		second = append(second, f.RelPath)
	}
	assert.Equal(t, first, second)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, errs := collect(t, filepath.Join(t.TempDir(), "gone"), Options{})
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], os.ErrNotExist))
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".log", ".log"},
		{"LOG", ".log"},
		{" .Json ", ".json"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeExt(tt.in))
		})
	}
}

func TestValidateExclude(t *testing.T) {
	assert.NoError(t, ValidateExclude([]string{"**/archive/**", "*.json"}))
	assert.Error(t, ValidateExclude([]string{"[unterminated"}))
}
