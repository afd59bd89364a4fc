package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// openStore opens the event log store named by --dsn or the configuration.
func openStore(cmd *cobra.Command) (backends.EventLog, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dsn := cfg.EventLogDSN
	if cmd.Flags().Changed("dsn") {
		dsn, _ = cmd.Flags().GetString("dsn")
	}

	store, err := backends.OpenEventLog(dsn)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return store, release, nil
}

func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "sources", Short: "Inspect and manage event sources"}
	cmd.AddCommand(
		newSourcesListCommand(),
		newSourcesExistsCommand(),
		newSourcesCreateCommand(),
		newSourcesDeleteCommand(),
	)
	return cmd
}

func newSourcesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered sources and their logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer release()

			lister, ok := store.(backends.SourceLister)
			if !ok {
				return types.PlatformUnsupported("list sources", fmt.Sprintf("%T", store), nil)
			}
			machine, _ := cmd.Flags().GetString("machine")
			sources, err := lister.ListSources(machine)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(sources))
			for name := range sources {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tLOG")
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%s\n", name, sources[name])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("machine", "", "Host qualifier")
	addStoreFlags(cmd)
	return cmd
}

func newSourcesExistsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exists <source>",
		Short: "Report whether a source is registered and to which log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer release()

			machine, _ := cmd.Flags().GetString("machine")
			exists, err := store.SourceExists(args[0], machine)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not registered\n", args[0])
				return nil
			}
			logName, err := store.LogNameFromSource(args[0], machine)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is registered to log %q\n", args[0], logName)
			return nil
		},
	}
	cmd.Flags().String("machine", "", "Host qualifier")
	addStoreFlags(cmd)
	return cmd
}

func newSourcesCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <source>",
		Short: "Register a source to a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer release()

			logName, _ := cmd.Flags().GetString("log")
			machine, _ := cmd.Flags().GetString("machine")
			if err := store.CreateSource(backends.SourceCreationData{Source: args[0], LogName: logName, MachineName: machine}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s to log %q\n", args[0], logName)
			return nil
		},
	}
	cmd.Flags().String("log", backends.DefaultLogName, "Log to register the source to")
	cmd.Flags().String("machine", "", "Host qualifier")
	addStoreFlags(cmd)
	return cmd
}

func newSourcesDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <source>",
		Short: "Remove a source registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer release()

			machine, _ := cmd.Flags().GetString("machine")
			if err := store.DeleteSource(args[0], machine); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("machine", "", "Host qualifier")
	addStoreFlags(cmd)
	return cmd
}

func newTailCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the newest entries of an event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer release()

			reader, ok := store.(backends.EntryReader)
			if !ok {
				return types.PlatformUnsupported("read entries", fmt.Sprintf("%T", store), nil)
			}
			logName, _ := cmd.Flags().GetString("log")
			machine, _ := cmd.Flags().GetString("machine")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			entries, err := reader.ReadEntries(logName, machine, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for _, e := range entries {
					if err := enc.Encode(e); err != nil {
						return errors.Wrap(err, "encode entry")
					}
				}
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %-11s %s (%d): %s\n",
					e.Written.Format("2006-01-02 15:04:05"), e.Type, e.Source, e.EventID, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().String("log", backends.DefaultLogName, "Event log name")
	cmd.Flags().String("machine", "", "Host qualifier")
	cmd.Flags().Int("limit", 50, "Number of newest entries to print; 0 prints all")
	cmd.Flags().Bool("json", false, "Print entries as JSON lines")
	addStoreFlags(cmd)
	return cmd
}
