package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wayneeseguin/platformlog/internal/config"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// NewRoot constructs the root command and registers every subcommand.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "platformlog",
		Short:         "Write to and inspect platform logs",
		Long:          "platformlog writes structured events to the transient log buffer, the console and the persistent event log.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", "", "Load PLATFORMLOG_* variables from a .env file")

	root.AddCommand(
		newEmitCommand(),
		newPipeCommand(),
		newSourcesCommand(),
		newTailCommand(),
		newHashCommand(),
	)
	return root
}

// loadConfig reads the configuration honoring --env-file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("env-file")
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// applySinkFlags overrides configuration with the sink flags the user set.
func applySinkFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("sink") {
		sinks, _ := flags.GetStringSlice("sink")
		cfg.Sinks = sinks
	}
	if flags.Changed("min-level") {
		cfg.MinLevel, _ = flags.GetString("min-level")
	}
	if flags.Changed("output-template") {
		cfg.OutputTemplate, _ = flags.GetString("output-template")
	}
	if flags.Changed("source") {
		cfg.Source, _ = flags.GetString("source")
	}
	if flags.Changed("log") {
		cfg.LogName, _ = flags.GetString("log")
	}
	if flags.Changed("machine") {
		cfg.Machine, _ = flags.GetString("machine")
	}
	if flags.Changed("manage-source") {
		cfg.ManageSource, _ = flags.GetBool("manage-source")
	}
	if flags.Changed("dsn") {
		cfg.EventLogDSN, _ = flags.GetString("dsn")
	}
	return cfg.Validate()
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("sink", nil, "Sinks to write to: buffer, console, eventlog")
	cmd.Flags().String("min-level", "", "Pipeline minimum level")
	cmd.Flags().String("output-template", "", "Output template for every sink")
	cmd.Flags().String("source", "", "Event log source")
	cmd.Flags().String("log", "", "Event log name")
	cmd.Flags().String("machine", "", "Event log host qualifier")
	cmd.Flags().Bool("manage-source", false, "Register or repair the event source before writing")
	addStoreFlags(cmd)
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("dsn", "", "Event log store DSN (file:///path, nats://host:4222, memory://)")
}

// parseProperties parses repeated key=value flags.
func parseProperties(pairs []string) (types.Properties, error) {
	props := make(types.Properties, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Errorf("invalid property %q; expected key=value", pair)
		}
		props[strings.TrimSpace(k)] = parseScalar(v)
	}
	return props, nil
}

// parseScalar keeps numbers and booleans typed so number formats apply.
func parseScalar(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
