// Package cli implements the gems command-line front end.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/gems"
	"github.com/adamwoolhether/gems/client"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build metadata reported by --version.
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

type app struct {
	out    io.Writer
	errOut io.Writer

	v        *viper.Viper
	cfgFile  string
	credFile string
	verbose  bool
	timeout  time.Duration

	logger *slog.Logger
	gems   *gems.Client
}

// NewRootCommand returns the gems command tree writing results to out and
// logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{
		out:    out,
		errOut: errOut,
		v:      viper.New(),
	}

	root := &cobra.Command{
		Use:   "gems",
		Short: "Query and manage gems on a RubyGems registry",
		Long: `gems talks to the RubyGems.org API, or any registry that serves it.

Credentials are read from --key, GEM_HOST_API_KEY, the config file, or
~/.gem/credentials, in that order.`,
		Version:           fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:      true,
		PersistentPreRunE: a.initialize,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("host", "", "registry origin (default https://rubygems.org)")
	flags.String("key", "", "API key")
	flags.String("format", "", "preferred response format: json or yaml")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./gems.yaml or ~/.gem/gems.yaml)")
	flags.StringVar(&a.credFile, "credentials", "", "credentials file (default ~/.gem/credentials)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log each request to stderr")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "per-request timeout")

	for _, name := range []string{"host", "key", "format"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		a.infoCmd(),
		a.searchCmd(),
		a.versionsCmd(),
		a.depsCmd(),
		a.pushCmd(),
		a.yankCmd(),
		a.ownerCmd(),
		a.webhookCmd(),
		a.fetchCmd(),
	)

	return root
}

// Execute runs the command tree against os.Args and exits non-zero on
// failure. SIGINT and SIGTERM cancel the in-flight request.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) initialize(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(a.v, a.cfgFile, a.credFile)
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded", "config", cfg.String())

	a.gems, err = gems.NewWithConfig(cfg,
		client.WithLogger(a.logger),
		client.WithTimeout(a.timeout),
	)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	return nil
}

// print writes v as indented JSON, or verbatim when it is a string.
func (a *app) print(v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(a.out, s)
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
