package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nodewee/doc-translate-prep/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted configuration",
	Long: `Manage persisted configuration settings.

Configuration is stored as YAML in ~/.doc-translate-prep/config.yaml.

Keys:
  soffice_path         Path to the LibreOffice executable (soffice)
  native_pdf           Convert PDF without LibreOffice (true/false)
  languages            All language name overrides (read only)
  languages.<name>     Code used for a language name; empty value removes it

Examples:
  doc-translate-prep config list
  doc-translate-prep config get soffice_path
  doc-translate-prep config set soffice_path /usr/bin/soffice
  doc-translate-prep config set languages.Brazilian pt-BR
  doc-translate-prep config set native_pdf true`,
}

// listConfig lists all persisted settings
func listConfig() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	configPath, _ := config.GetConfigFilePath()
	fmt.Printf("📁 Config file: %s\n\n", configPath)

	fmt.Printf("  %-14s = %s\n", "soffice_path", getDisplayValue(cfg.SofficePath))
	fmt.Printf("  %-14s = %t\n", "native_pdf", cfg.NativePDF)

	if len(cfg.Languages) == 0 {
		fmt.Printf("  %-14s = %s\n", "languages", "(none)")
	} else {
		names := make([]string, 0, len(cfg.Languages))
		for name := range cfg.Languages {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-14s = %s\n", config.LanguageKeyPrefix+name, cfg.Languages[name])
		}
	}

	fmt.Println("\n💡 Runtime settings (batching, concurrency, timeouts) come from DOC_PREP_* variables and flags")
}

// getConfig prints a specific configuration value
func getConfig(key string) {
	value, err := config.GetConfigValue(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error getting config value '%s': %v\n", key, err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfig sets a specific configuration value
func setConfig(key, value string) {
	if err := config.SetConfigValue(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error setting config value '%s': %v\n", key, err)
		fmt.Fprintf(os.Stderr, "💡 Available keys: %v\n", config.ListConfigKeys())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "✅ Successfully set %s = %s\n", key, getDisplayValue(value))
}

// getDisplayValue returns a display-friendly value for empty strings
func getDisplayValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

// configListCmd represents the 'config list' command
var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listConfig()
	},
}

// configGetCmd represents the 'config get' command
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		getConfig(args[0])
	},
}

// configSetCmd represents the 'config set' command
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setConfig(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
