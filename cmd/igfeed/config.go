package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igfeed/pkg/config"
	"igfeed/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igfeed configuration files.

Configuration is merged from, in order of priority:
  - Command line flags
  - Environment variables (IGFEED_*), including .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to 'igfeed.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# igfeed configuration file
#
# Every option can also be set with an IGFEED_ environment variable,
# for example IGFEED_CACHE_BACKEND=redis or IGFEED_BROWSER_PATH=/opt/chrome.

server:
  addr: ":8080"
  read_timeout: 15s
  # must cover a full scrape
  write_timeout: 4m
  shutdown_timeout: 10s
  allowed_origins: ["*"]

network:
  base_url: "https://www.instagram.com"

browser:
  # auto, local or packaged. auto picks packaged on serverless platforms.
  mode: auto
  # required in packaged mode
  exec_path: ""
  headless: true
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
  viewport_width: 1280
  viewport_height: 800
  navigation_timeout: 60s
  ready_timeout: 30s
  dialog_pause: 2s
  scroll_iterations: 3
  scroll_pause: 2s

scraper:
  timeout: 3m
  # 0 disables admission limiting
  scrapes_per_minute: 10
  # synthesize placeholder posts and avatar when extraction finds nothing,
  # otherwise the profile is returned with partial: true
  placeholder_fallback: true
  placeholder_posts: 18

cache:
  # memory or redis
  backend: memory
  ttl: 1h
  max_profiles: 1

redis:
  addr: "localhost:6379"
  password: ""
  db: 0
  key_prefix: "igfeed:"
  connect_attempts: 3

feed:
  default_limit: 6
  max_limit: 50
  max_page: 10000

debug:
  # screenshot and HTML of every scraped page
  artifacts_dir: ""

logging:
  level: info
  file: ""
  pretty: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "igfeed.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.Default().Line("\nNext steps:")
	ui.Default().Line("1. Review browser and cache settings")
	ui.Default().Line("2. Run 'igfeed config validate' to check the configuration")
	ui.Default().Line("3. Start the service with 'igfeed serve'")
	return nil
}

// maskedConfig hides credentials before display
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	if display.Redis.Password != "" {
		display.Redis.Password = "***"
	}
	return display
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		return err
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		return err
	}

	if cfg.Logging.File != "" {
		if _, err := os.Stat(cfg.Logging.File); err != nil && !os.IsNotExist(err) {
			ui.PrintWarning("Log file is not accessible", err)
		}
	}
	if cfg.Browser.ResolvedBrowserMode() == config.BrowserModeLocal && cfg.Browser.ExecPath == "" {
		ui.PrintWarning("No browser path configured, relying on Chrome discovery")
	}
	if !cfg.Scraper.PlaceholderFallback {
		ui.PrintWarning("Placeholder fallback is off, degenerate scrapes return partial profiles")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Browser mode", cfg.Browser.ResolvedBrowserMode())
	ui.PrintInfo("Cache", fmt.Sprintf("%s, ttl %s", cfg.Cache.Backend, cfg.Cache.TTL))
	ui.PrintInfo("Page size", fmt.Sprintf("%d (max %d)", cfg.Feed.DefaultLimit, cfg.Feed.MaxLimit))
	return nil
}
