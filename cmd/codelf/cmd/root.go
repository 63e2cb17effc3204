// Package cmd provides the CLI commands for codelf.
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dasmlab/codelf/pkg/codelf"
	"github.com/dasmlab/codelf/pkg/config"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root command for the codelf CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "codelf",
		Short: "Find variable names used in public source code",
		Long: `codelf searches public source code for identifiers that contain your
keywords. Chinese queries are translated to English first through the
configured translators (Youdao, Baidu, Bing).`,
		Version:      Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("codelf version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger builds a logger writing to w. Stdout is reserved for results.
func newLogger(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// loadClient reads the configuration and builds a codelf client.
func loadClient(cmd *cobra.Command, opts *rootOptions) (*codelf.Client, *logrus.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	client, err := codelf.New(cfg.ClientConfig(logger))
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}
