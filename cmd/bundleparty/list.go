package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// validFormats lists all valid list output formats.
var validFormats = map[string]bool{
	"text": true,
	"yaml": true,
	"toml": true,
}

func newListCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the analyses in the catalog",
		Long: `List the analyses in the active catalog.

The yaml and toml formats print a complete catalog file that can be edited
and passed back with --catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormats[format] {
				return fmt.Errorf("invalid --format %q (valid: %s)", format, formatNames())
			}
			cat, err := a.settings().catalog()
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), format, cat)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: "+formatNames())
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return slices.Sorted(maps.Keys(validFormats)), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// writeCatalog writes cat to out in the given format.
func writeCatalog(out io.Writer, format string, cat *pattern.Catalog) error {
	switch format {
	case "text":
		return writeText(out, cat)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cat); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(out).Encode(cat)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeText writes the catalog as a table.
func writeText(out io.Writer, cat *pattern.Catalog) error {
	header := lipgloss.NewRenderer(out).NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewRenderer(out).NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("KEY", "NAME", "TERMS", "OUTPUT")

	for _, s := range cat.Sets() {
		terms := strings.Join(s.Terms, ", ")
		if s.Regex {
			terms = "regex: " + terms
		}
		t.Row(s.Key, s.Name, truncate(terms, 48), s.ResultFile())
	}

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatNames() string {
	return strings.Join(slices.Sorted(maps.Keys(validFormats)), ", ")
}
