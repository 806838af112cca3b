// Package cmd implements the spin command line tool.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/summit58/camunda-spin/internal/logging"
)

// Configuration keys. Every key can also be set through a SPIN_* environment
// variable, e.g. SPIN_LOG_LEVEL=debug.
const (
	keyConfig   = "config"
	keyFormat   = "format"
	keyPretty   = "pretty"
	keyLogLevel = "log-level"
	keyFormats  = "formats"
)

type app struct {
	v       *viper.Viper
	version string
}

// NewRoot builds the spin command tree.
func NewRoot(version string) *cobra.Command {
	a := &app{v: viper.New(), version: version}

	root := &cobra.Command{
		Use:   "spin",
		Short: "Read, query and convert structured documents",
		Long: `spin reads JSON, XML, YAML and TOML documents, navigates them with
JSON Pointers, JSONPath or XPath, and converts between formats.

Formats are detected from the file extension or the content unless --format
is given. Per-format options can be set in the config file:

  formats:
    json:
      indent: 4
    xml:
      xmlDeclaration: true`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String(keyConfig, "", "config file (json, yaml or toml)")
	flags.String(keyFormat, "", "input format name or alias; detected when empty")
	flags.Bool(keyPretty, false, "pretty-print output")
	flags.String(keyLogLevel, "warn", "log level (trace, debug, info, warn, error)")
	for _, key := range []string{keyConfig, keyFormat, keyPretty, keyLogLevel} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	a.v.SetEnvPrefix("spin")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.formatsCmd(),
		a.getCmd(),
		a.queryCmd(),
		a.convertCmd(),
		a.watchCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if file := a.v.GetString(keyConfig); file != "" {
		a.v.SetConfigFile(file)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", file, err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logging.SetLogger(logger)
	if err := logging.SetLevel(a.v.GetString(keyLogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.log().WithField("config", a.v.ConfigFileUsed()).Debug("configured")
	return nil
}

func (a *app) log() *logrus.Entry {
	return logging.For("cli")
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spin version %s\n", a.version)
		},
	}
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
