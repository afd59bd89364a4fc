package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayneeseguin/platformlog/pkg/eventid"
)

func newHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <template>",
		Short: "Print the event id the event log assigns to a message template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := eventid.Hash(args[0])
			if err != nil {
				return err
			}
			if hex, _ := cmd.Flags().GetBool("hex"); hex {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%04X\n", id)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().Bool("hex", false, "Print the id in hexadecimal")
	return cmd
}
