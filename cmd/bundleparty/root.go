package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bundleparty/bundleparty/internal/logfinder"
	"github.com/bundleparty/bundleparty/internal/menu"
	"github.com/bundleparty/bundleparty/pkg/bundleparty"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// envPrefix is the prefix for environment variables, e.g. BUNDLEPARTY_ROOT.
const envPrefix = "BUNDLEPARTY"

// configName is the config file looked up in the working directory.
const configName = ".bundleparty"

// settings is the resolved configuration for one invocation.
type settings struct {
	Root      string
	OutputDir string
	Catalog   string
	Exts      []string
	Exclude   []string
	Verbose   bool
}

// app carries state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	in      io.Reader
}

// newRootCmd builds the command tree. Each call gets its own viper instance.
func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{v: viper.New(), in: in}

	rootCmd := &cobra.Command{
		Use:   "bundleparty",
		Short: "Scan a support bundle for known failure signatures",
		Long: `bundleparty walks a support bundle, searches every *.log and *.json file
for pre-canned or custom search terms, and writes the matching lines to
analysis_results/ under the bundle root.

Run without a subcommand for the interactive menu.

Settings can also come from BUNDLEPARTY_* environment variables
(e.g. BUNDLEPARTY_ROOT) or a .bundleparty.yaml file in the working directory.
Flags take precedence over both.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		RunE: a.runMenu,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./.bundleparty.yaml)")
	flags.StringP("root", "r", ".", "support bundle root directory")
	flags.StringP("output-dir", "o", logfinder.DefaultOutputDirName,
		"directory for result files (relative paths are resolved against --root)")
	flags.String("catalog", "", "analysis catalog file, YAML or TOML (default: built-in catalog)")
	flags.StringSlice("ext", logfinder.DefaultExtensions, "file extensions to scan")
	flags.StringSlice("exclude", nil, "glob patterns of paths to skip (e.g. '**/archive/**')")
	flags.BoolP("verbose", "v", false, "print debug logs to stderr")

	rootCmd.AddCommand(newRunCmd(a), newListCmd(a), newCompletionCmd())
	return rootCmd
}

// initConfig binds flags, environment and the optional config file.
func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// settings resolves the effective settings.
func (a *app) settings() settings {
	v := a.v
	return settings{
		Root:      v.GetString("root"),
		OutputDir: v.GetString("output-dir"),
		Catalog:   v.GetString("catalog"),
		Exts:      splitList(v.GetStringSlice("ext")),
		Exclude:   splitList(v.GetStringSlice("exclude")),
		Verbose:   v.GetBool("verbose"),
	}
}

// logger returns a debug logger on stderr when verbose, else nil.
func (s settings) logger(stderr io.Writer) *slog.Logger {
	if !s.Verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// catalog loads the configured catalog or the built-in one.
func (s settings) catalog() (*pattern.Catalog, error) {
	if s.Catalog == "" {
		return pattern.Default(), nil
	}
	c, err := pattern.Load(s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", s.Catalog, err)
	}
	return c, nil
}

// analyzer creates an Analyzer for the configured root.
func (s settings) analyzer(log *slog.Logger) (*bundleparty.Analyzer, error) {
	return bundleparty.NewAnalyzer(
		bundleparty.WithRoot(s.Root),
		bundleparty.WithOutputDir(s.OutputDir),
		bundleparty.WithExtensions(s.Exts...),
		bundleparty.WithExclude(s.Exclude...),
		bundleparty.WithLogger(log),
	)
}

func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := a.settings()
	log := s.logger(cmd.ErrOrStderr())

	cat, err := s.catalog()
	if err != nil {
		return err
	}
	an, err := s.analyzer(log)
	if err != nil {
		return err
	}

	m := menu.New(cat, an, a.in, cmd.OutOrStdout(), menu.WithLogger(log))
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// splitList flattens comma-separated entries. Values from the environment
// arrive as a single comma-separated string.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
