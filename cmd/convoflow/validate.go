package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zapcampo/convoflow/internal/cli"
	"github.com/zapcampo/convoflow/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow definition for consistency",
	Long:  `Runs the full validation battery over a flow file: schema, references, cycles, reachability and content checks. Exits non-zero when errors are found.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		if err := runValidate(args[0], jsonMode); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Output the report as JSON")
}

func runValidate(path string, jsonMode bool) error {
	raw, err := cli.ReadFlowDocument(path)
	if err != nil {
		return err
	}

	result := validator.Validate(raw)

	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		errs := make([]string, 0, len(result.Errors))
		for _, issue := range result.Errors {
			errs = append(errs, issue.Message)
		}
		warns := make([]string, 0, len(result.Warnings))
		for _, issue := range result.Warnings {
			warns = append(warns, issue.Message)
		}
		cli.PrintValidationReport(os.Stdout, path, errs, warns)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}
