package cmd

import (
	"context"

	"github.com/mwkelly/redraft/internal/claude"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available for cleanup",
	Long: `List the models the configured credential can use.

The list is cached for 24 hours. Without a credential, or when the live
fetch fails, a built-in fallback list is shown instead.

Examples:
  redraft models
  redraft models --refresh
  redraft models -f json`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().Bool("refresh", false, "fetch the model list even if the cache is fresh")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	refresh, _ := cmd.Flags().GetBool("refresh")
	ctx := context.Background()

	var models []claude.ModelInfo
	if refresh {
		models = h.cache.Refresh(ctx)
	} else {
		models = h.cache.Available(ctx)
	}

	// A failed persist only costs the next run a refetch.
	if err := h.saveRecord(); err != nil {
		h.logger.Warn("failed to persist model cache", "error", err)
	}

	return h.writer(cmd.OutOrStdout()).WriteModels(models)
}
