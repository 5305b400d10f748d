package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundleparty/bundleparty/pkg/bundleparty"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// execute runs the command tree with args and returns stdout and stderr.
func execute(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newBundle(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tfe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tfe", "atlas.log"),
		[]byte("boot ok\nfailed to connect to postgres: timeout\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "events.json"),
		[]byte(`{"msg":"request timeout"}`+"\n"), 0o644))
	return root
}

func TestValidFormats(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"text", true},
		{"yaml", true},
		{"toml", true},
		{"json", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.valid, validFormats[tt.format])
		})
	}
}

func TestSelectSets(t *testing.T) {
	cat := pattern.Default()

	t.Run("keys in order", func(t *testing.T) {
		sets, err := selectSets(cat, []string{"4", "1"}, "")
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Equal(t, "4", sets[0].Key)
		assert.Equal(t, "1", sets[1].Key)
	})

	t.Run("all with duplicates", func(t *testing.T) {
		sets, err := selectSets(cat, []string{"1", "ALL"}, "")
		require.NoError(t, err)
		assert.Len(t, sets, len(cat.Analyses))
		assert.Equal(t, "1", sets[0].Key)
	})

	t.Run("custom terms last", func(t *testing.T) {
		sets, err := selectSets(cat, []string{"3"}, " timeout, ,denied")
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Equal(t, pattern.CustomName, sets[1].Name)
		assert.Equal(t, []string{"timeout", "denied"}, sets[1].Terms)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := selectSets(cat, []string{"42"}, "")
		assert.ErrorContains(t, err, `unknown analysis key "42"`)
	})

	t.Run("blank terms", func(t *testing.T) {
		_, err := selectSets(cat, nil, " , ")
		assert.True(t, errors.Is(err, pattern.ErrNoTerms))
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{".log", ".txt", ".json"}, splitList([]string{".log, .txt", " .json ", ""}))
	assert.Nil(t, splitList(nil))
}

func TestRunCommand_CustomTerms(t *testing.T) {
	root := newBundle(t)

	stdout, stderr, err := execute(t, "", "run", "--root", root, "--terms", "timeout")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "custom_search: 2 matches in 2 files")

	data, err := os.ReadFile(filepath.Join(root, "analysis_results", "custom_search_results.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		`events.json: {"msg":"request timeout"}`+"\n"+
			filepath.Join("tfe", "atlas.log")+": failed to connect to postgres: timeout\n",
		string(data))
}

func TestRunCommand_CatalogKey(t *testing.T) {
	root := newBundle(t)

	stdout, _, err := execute(t, "", "run", "4", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Connection Errors: 1 matches")
	assert.FileExists(t, filepath.Join(root, "analysis_results", "connection_errors.txt"))
}

func TestRunCommand_All(t *testing.T) {
	root := newBundle(t)

	stdout, _, err := execute(t, "", "run", "all", "--root", root)
	require.NoError(t, err)

	for _, s := range pattern.Default().Sets() {
		assert.Contains(t, stdout, s.Name+":")
		assert.FileExists(t, filepath.Join(root, "analysis_results", s.ResultFile()))
	}
}

func TestRunCommand_NothingToRun(t *testing.T) {
	_, _, err := execute(t, "", "run", "--root", t.TempDir())
	assert.ErrorContains(t, err, "nothing to run")
}

func TestRunCommand_UnknownKey(t *testing.T) {
	root := newBundle(t)

	_, _, err := execute(t, "", "run", "x", "--root", root)
	assert.ErrorContains(t, err, "unknown analysis key")

	_, statErr := os.Stat(filepath.Join(root, "analysis_results"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCommand_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, _, err := execute(t, "", "run", "all", "--root", missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bundleparty.ErrInvalidRoot))

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCommand_OutputFailure(t *testing.T) {
	root := newBundle(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "analysis_results"), nil, 0o644))

	_, stderr, err := execute(t, "", "run", "--root", root, "--terms", "timeout")
	assert.ErrorIs(t, err, errAnalysesFailed)
	assert.Contains(t, stderr, "error: custom_search:")
}

func TestRunCommand_EnvironmentSettings(t *testing.T) {
	root := newBundle(t)
	t.Setenv("BUNDLEPARTY_ROOT", root)
	t.Setenv("BUNDLEPARTY_OUTPUT_DIR", "out")
	t.Setenv("BUNDLEPARTY_EXT", ".json")

	stdout, _, err := execute(t, "", "run", "--terms", "timeout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "custom_search: 1 matches in 1 files")
	assert.FileExists(t, filepath.Join(root, "out", "custom_search_results.txt"))
}

func TestRunCommand_FlagOverridesEnvironment(t *testing.T) {
	root := newBundle(t)
	t.Setenv("BUNDLEPARTY_ROOT", filepath.Join(root, "missing"))

	_, _, err := execute(t, "", "run", "--root", root, "--terms", "timeout")
	require.NoError(t, err)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	root := newBundle(t)
	work := t.TempDir()
	t.Chdir(work)

	config := "root: " + root + "\nexclude:\n  - 'tfe/**'\n"
	require.NoError(t, os.WriteFile(filepath.Join(work, ".bundleparty.yaml"), []byte(config), 0o644))

	stdout, _, err := execute(t, "", "run", "--terms", "timeout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "custom_search: 1 matches in 1 files")
}

func TestRunCommand_ExplicitConfigMissing(t *testing.T) {
	_, _, err := execute(t, "", "run", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--terms", "x")
	assert.ErrorContains(t, err, "reading config")
}

func TestRunCommand_CustomCatalog(t *testing.T) {
	root := newBundle(t)
	catalog := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(catalog, []byte(`version = 1

[[analyses]]
key = "db"
name = "Database"
terms = ["postgres"]
output_file = "database.txt"
`), 0o644))

	stdout, _, err := execute(t, "", "run", "db", "--root", root, "--catalog", catalog)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Database: 1 matches")
	assert.FileExists(t, filepath.Join(root, "analysis_results", "database.txt"))
}

func TestRootCommand_Menu(t *testing.T) {
	root := newBundle(t)

	stdout, _, err := execute(t, "timeout\n\nq\n", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Please choose an option:")
	assert.Contains(t, stdout, "--- Running Custom Search ---")
	assert.Contains(t, stdout, "Found 2 matching log entries in 2 files.")
	assert.Contains(t, stdout, "Goodbye!")
	assert.FileExists(t, filepath.Join(root, "analysis_results", "custom_search_results.txt"))
}

func TestRootCommand_MenuInvalidRoot(t *testing.T) {
	stdout, _, err := execute(t, "q\n", "--root", filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, bundleparty.ErrInvalidRoot))
	assert.NotContains(t, stdout, "Please choose an option:")
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	_, _, err := execute(t, "", "bogus")
	assert.Error(t, err)
}

func TestRootCommand_VerboseLogs(t *testing.T) {
	root := newBundle(t)

	_, stderr, err := execute(t, "", "run", "-v", "--root", root, "--terms", "timeout")
	require.NoError(t, err)
	assert.Contains(t, stderr, "analysis finished")
}

func TestListCommand_Text(t *testing.T) {
	stdout, _, err := execute(t, "", "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "KEY")
	for _, s := range pattern.Default().Sets() {
		assert.Contains(t, stdout, s.ResultFile())
	}
}

func TestListCommand_OutputReloads(t *testing.T) {
	want := pattern.Default()

	yamlOut, _, err := execute(t, "", "list", "--format", "yaml")
	require.NoError(t, err)
	fromYAML, err := pattern.LoadBytes([]byte(yamlOut))
	require.NoError(t, err)
	assert.Equal(t, want, fromYAML)

	tomlOut, _, err := execute(t, "", "list", "-f", "toml")
	require.NoError(t, err)
	fromTOML, err := pattern.LoadTOML([]byte(tomlOut))
	require.NoError(t, err)
	assert.Equal(t, want, fromTOML)
}

func TestListCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "", "list", "--format", "xml")
	assert.ErrorContains(t, err, "invalid --format")
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := execute(t, "", "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "bundleparty")
		})
	}

	_, _, err := execute(t, "", "completion", "tcsh")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
