package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/surveytab/internal/config"
	"github.com/KaramelBytes/surveytab/internal/logging"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "surveytab",
	Short: "surveytab: frequency and contingency tables for survey spreadsheets",
	Long: `surveytab loads a spreadsheet of survey responses and tabulates one question
(frequencies) or two questions against each other (contingency table).
Multi-select answers such as "Red, Blue (navy, sky)" are split on commas
outside parentheses before counting.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.surveytab/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{DefaultSheetIndex: 1, FrequencyOrder: "count", Separator: ",", LogLevel: "info", LogFormat: "console", MaxUploadMB: 20}
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to build logger: %v\n", err)
		return
	}
	logger = l
}
