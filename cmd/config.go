package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored cleanup settings",
	Long: `Show or change the settings stored in the data file.

Examples:
  redraft config show
  redraft config set model claude-opus-4-1-20250805
  redraft config set commentary true
  redraft config set style analytical
  redraft config set-key`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one of the stored settings.

Keys:
  model                model identifier used for cleanup
  instruction          cleanup instruction sent in the system prompt
  commentary           true/false, include commentary in results
  style                commentary style (constructive, encouraging, analytical, brief, custom)
  custom-instruction   commentary instruction used when style is custom`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the API key",
	Long: `Store the API key in the data file.

When stdin is a terminal the key is read without echo; otherwise the
first line of stdin is used, so keys can be piped in.`,
	Args: cobra.NoArgs,
	RunE: runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	s := h.record.Settings
	if output.ParseFormat(h.cfg.Format) == output.FormatJSON {
		shown := s
		shown.APIKey = redactedKey(s.APIKey)
		return h.writer(cmd.OutOrStdout()).WriteJSON(shown)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "api_key: %s\n", redactedKey(s.APIKey))
	fmt.Fprintf(out, "model: %s\n", s.Model)
	fmt.Fprintf(out, "instruction: %s\n", s.Instruction)
	fmt.Fprintf(out, "commentary: %t\n", s.Commentary)
	fmt.Fprintf(out, "style: %s\n", s.Style)
	if s.CustomInstruction != "" {
		fmt.Fprintf(out, "custom_instruction: %s\n", s.CustomInstruction)
	}
	fmt.Fprintf(out, "data_file: %s\n", h.store.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	if err := applySetting(&h.record.Settings, args[0], args[1]); err != nil {
		return err
	}
	if err := h.saveRecord(); err != nil {
		return err
	}

	s := h.record.Settings
	if s.Style == config.StyleCustom && strings.TrimSpace(s.CustomInstruction) == "" {
		h.notifier.Notify("the custom style needs an instruction; set one with 'redraft config set custom-instruction ...'")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}

	key, err := readKey(cmd)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("no key entered")
	}

	h.record.Settings.APIKey = key
	if err := h.saveRecord(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "api key stored")
	return nil
}

// applySetting mutates one settings field addressed by key.
func applySetting(s *config.Settings, key, value string) error {
	switch key {
	case "model":
		s.Model = value
	case "instruction":
		s.Instruction = value
	case "commentary":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid commentary value %q (use true or false)", value)
		}
		s.Commentary = enabled
	case "style":
		style, err := config.ParseStyle(value)
		if err != nil {
			return err
		}
		s.Style = style
	case "custom-instruction":
		s.CustomInstruction = value
	default:
		return fmt.Errorf("unknown setting %q (must be one of: model, instruction, commentary, style, custom-instruction)", key)
	}
	return nil
}

// redactedKey masks the credential for display, keeping just enough to
// recognize which key is stored.
func redactedKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 12 {
		return "****"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// readKey reads the credential without echo when stdin is a terminal,
// and from the first line of stdin otherwise.
func readKey(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
