package cmd

import (
	"fmt"
	"os"

	"github.com/mwkelly/redraft/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "redraft",
	Short: "AI-assisted text cleanup from the command line",
	Long: `Redraft sends text to an Anthropic model for grammar and style
cleanup, with optional commentary on the writing.

Settings and a cached model list live in a small data file, so repeated
runs stay fast and behave the same way across invocations.

Examples:
  redraft cleanup draft.txt
  cat notes.md | redraft cleanup
  redraft cleanup --commentary --style analytical draft.txt
  redraft models --refresh
  redraft config set model claude-opus-4-1-20250805`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.redraft.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("data-file", "", "settings and cache file (default is $HOME/.redraft/data.json)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("data_file", rootCmd.PersistentFlags().Lookup("data-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".redraft")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REDRAFT")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("base_url", "")
	if dataFile, err := config.DefaultDataFile(); err == nil {
		viper.SetDefault("data_file", dataFile)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
