package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage scorebox configuration",
	Long: `Manage scorebox configuration stored in <state-dir>/config.yaml.

Configuration options:
  provider                 - State read mode (auto, privileged, plain)
  elevate                  - Elevation command prefix (YAML list)
  check_interval           - Interval between checks in watch mode
  logging.level            - Log level (debug, info, warn, error)
  sources.policy_state     - Policy-state document path
  sources.settings_secure  - Secure settings namespace path
  sources.settings_system  - System settings namespace path
  sources.settings_global  - Global settings namespace path
  sources.package_index    - Package index path

Available commands:
  show              - Show current configuration
  set <key> <value> - Set a configuration value
  get <key>         - Get a configuration value`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		fmt.Println("# Scorebox Configuration")
		fmt.Printf("# Location: %s\n\n", filepath.Join(stateDir(), "config.yaml"))
		fmt.Printf("provider: %s\n", cfg.Provider)
		fmt.Printf("elevate: %v\n", cfg.Elevate)
		fmt.Printf("check_interval: %s\n", cfg.CheckInterval())
		fmt.Printf("logging.level: %s\n", cfg.Logging.Level)
		fmt.Println("sources:")
		fmt.Printf("  policy_state: %s\n", cfg.Sources.PolicyState)
		fmt.Printf("  settings_secure: %s\n", cfg.Sources.SettingsSecure)
		fmt.Printf("  settings_system: %s\n", cfg.Sources.SettingsSystem)
		fmt.Printf("  settings_global: %s\n", cfg.Sources.SettingsGlobal)
		fmt.Printf("  package_index: %s\n", cfg.Sources.PackageIndex)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in <state-dir>/config.yaml.

Examples:
  scorebox config set provider plain
  scorebox config set check_interval 30s
  scorebox config set elevate "[\"sudo\",\"-n\"]"
  scorebox config set sources.policy_state /var/lib/policymgr/policy_state.json`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if err := cfg.Set(args[0], args[1]); err != nil {
			fmtErr("set config: %v", err)
			os.Exit(1)
		}
		if err := config.Save(stateDir(), cfg); err != nil {
			fmtErr("save config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		value, err := cfg.Get(args[0])
		if err != nil {
			fmtErr("get config: %v", err)
			os.Exit(1)
		}
		fmt.Println(strings.TrimRight(value, "\n"))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}
