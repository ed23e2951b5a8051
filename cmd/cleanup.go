package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwkelly/redraft/internal/cleanup"
	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/watch"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [file]",
	Short: "Clean up text with AI and optional commentary",
	Long: `Send text to the configured model for grammar and style cleanup.

Text comes from the file argument, or from stdin when no file is given.
Flags override the stored settings for this run only; use
'redraft config set' to change them permanently.

Examples:
  redraft cleanup draft.txt
  cat notes.md | redraft cleanup
  redraft cleanup --commentary --style encouraging draft.txt
  redraft cleanup --insert draft.txt
  redraft cleanup --watch --output cleaned.txt draft.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCleanup,
}

func init() {
	addCleanupFlags(cleanupCmd)
	rootCmd.AddCommand(cleanupCmd)
}

// addCleanupFlags registers the cleanup flags. Split out so tests can
// build a command with the same flag set.
func addCleanupFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "model to use for this run")
	cmd.Flags().String("instruction", "", "cleanup instruction for this run")
	cmd.Flags().Bool("commentary", false, "request commentary on the writing")
	cmd.Flags().String("style", "", "commentary style (constructive, encouraging, analytical, brief, custom)")
	cmd.Flags().String("custom-instruction", "", "commentary instruction used with --style custom")
	cmd.Flags().StringP("output", "o", "", "write the result to this file instead of stdout")
	cmd.Flags().Bool("insert", false, "append the formatted result to the source file")
	cmd.Flags().Bool("watch", false, "re-run cleanup every time the source file is saved")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	settings, err := overriddenSettings(cmd, h.record.Settings)
	if err != nil {
		return err
	}

	insert, _ := cmd.Flags().GetBool("insert")
	watchMode, _ := cmd.Flags().GetBool("watch")
	outPath, _ := cmd.Flags().GetString("output")

	var filePath string
	if len(args) == 1 {
		filePath = args[0]
	}
	if filePath == "" && (insert || watchMode) {
		return errors.New("--insert and --watch need a file argument")
	}
	if insert && outPath != "" {
		return errors.New("--insert and --output are mutually exclusive")
	}
	if insert && watchMode {
		return errors.New("--insert cannot be combined with --watch: the appended result would retrigger the watch")
	}

	service := cleanup.NewService(h.client, func() config.Settings { return settings }, h.logger)

	runOnce := func(ctx context.Context) error {
		text, err := readSource(cmd, filePath)
		if err != nil {
			return err
		}

		result, err := service.Run(ctx, text)
		if err != nil {
			h.logger.Error("cleanup failed", "error", err)
			return errors.New(noticeForError(err))
		}

		if insert {
			return appendInsertion(filePath, cleanup.FormatInsertion(result))
		}
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()
			return h.writer(f).WriteResult(result)
		}
		return h.writer(cmd.OutOrStdout()).WriteResult(result)
	}

	ctx := context.Background()
	if !watchMode {
		return runOnce(ctx)
	}
	return watchLoop(ctx, cmd, h, filePath, runOnce)
}

// watchLoop cleans the file once up front, then again on every save,
// until interrupted. Failed runs print their notice and the loop keeps
// watching.
func watchLoop(ctx context.Context, cmd *cobra.Command, h *host, filePath string, runOnce func(context.Context) error) error {
	if err := runOnce(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}

	watcher := watch.New(watch.Options{
		Path:   filePath,
		Logger: h.logger,
		OnChange: func(ctx context.Context) error {
			if err := runOnce(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return nil
		},
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- watcher.Run(ctx)
	}()

	select {
	case <-sigChan:
		cancel()
		<-errChan
		return nil
	case err := <-errChan:
		return err
	}
}

// overriddenSettings layers this run's flag overrides onto the stored
// settings without persisting them.
func overriddenSettings(cmd *cobra.Command, stored config.Settings) (config.Settings, error) {
	s := stored
	if cmd.Flags().Changed("model") {
		s.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("instruction") {
		s.Instruction, _ = cmd.Flags().GetString("instruction")
	}
	if cmd.Flags().Changed("commentary") {
		s.Commentary, _ = cmd.Flags().GetBool("commentary")
	}
	if cmd.Flags().Changed("style") {
		raw, _ := cmd.Flags().GetString("style")
		style, err := config.ParseStyle(raw)
		if err != nil {
			return config.Settings{}, err
		}
		s.Style = style
		// Asking for a style implies wanting the commentary, unless
		// the user said otherwise.
		if !cmd.Flags().Changed("commentary") {
			s.Commentary = true
		}
	}
	if cmd.Flags().Changed("custom-instruction") {
		s.CustomInstruction, _ = cmd.Flags().GetString("custom-instruction")
	}
	return s, nil
}

// readSource returns the text to clean, from the file or stdin.
func readSource(cmd *cobra.Command, filePath string) (string, error) {
	if filePath == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return string(data), nil
}

// appendInsertion appends the formatted block below the source text,
// the same shape the editor integration inserts under a selection.
func appendInsertion(path, block string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}
