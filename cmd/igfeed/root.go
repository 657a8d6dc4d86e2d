package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile          string
	logLevel            string
	noColor             bool
	quiet               bool
	browserMode         string
	browserPath         string
	cacheBackend        string
	placeholderFallback bool
	artifactsDir        string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igfeed",
	Short: "Serve paginated feeds of public social profiles",
	Long: `igfeed renders public profile pages in a headless browser, extracts the
profile header and post grid, and serves the posts page by page over HTTP.

Scraped profiles are cached for a fixed time. Within that window each page
of a profile is handed out once; asking for it again is refused.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Default().SetNoColor(noColor)
		ui.Default().SetQuiet(quiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	logger.Version = version

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igfeed.yaml or ~/.config/igfeed/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().StringVar(&browserMode, "browser-mode", "", "browser launch mode (auto, local, packaged)")
	rootCmd.PersistentFlags().StringVar(&browserPath, "browser-path", "", "path to the Chrome executable")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "", "profile cache backend (memory, redis)")
	rootCmd.PersistentFlags().BoolVar(&placeholderFallback, "placeholder-fallback", true, "synthesize placeholder posts when extraction finds nothing")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts-dir", "", "save a screenshot and the HTML of every scraped page here")

	rootCmd.SetVersionTemplate(`igfeed {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandFlags collects the global flags the user actually set
func commandFlags() map[string]interface{} {
	flags := map[string]interface{}{
		"browser-mode":  browserMode,
		"browser-path":  browserPath,
		"cache-backend": cacheBackend,
		"artifacts-dir": artifactsDir,
		"log-level":     logLevel,
	}
	if rootCmd.PersistentFlags().Changed("placeholder-fallback") {
		flags["placeholder-fallback"] = placeholderFallback
	}
	return flags
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := commandFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
