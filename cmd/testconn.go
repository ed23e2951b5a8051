package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity to the API",
	Long: `Send a minimal request to verify the API key and connectivity.

The outcome is reported as data: the command prints what happened and
exits non-zero only when the test fails.

Examples:
  redraft test
  redraft test -f json`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	result := h.client.TestConnection(context.Background(), h.record.Settings.Model)
	if err := h.writer(cmd.OutOrStdout()).WriteTestResult(result); err != nil {
		return err
	}

	if !result.Success {
		return errors.New("connection test failed")
	}
	return nil
}
