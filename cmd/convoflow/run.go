package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zapcampo/convoflow/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Run a flow as an interactive conversation",
	Long:  `Starts the flow in the terminal and drives it turn by turn from stdin until the conversation ends.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metadata, _ := cmd.Flags().GetString("metadata")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			FlowPath: args[0],
			Metadata: metadata,
			Debug:    debug,
		}
		if err := cli.RunInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("metadata", "", "Conversation metadata as JSON (lead, consultant, vertical)")
}
