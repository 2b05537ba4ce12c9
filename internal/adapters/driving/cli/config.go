package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driving"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in ~/.chunklink/config.toml.

Settings are resolved in this order: command-line flags, environment
variables (also read from a .env file in the working directory), the
config file, then built-in defaults.

Annotator options use keys of the form pipeline.<annotator>.<option>,
for example pipeline.chunklink.column.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and where they come from",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	entries, err := svc.Describe()
	if err != nil {
		return err
	}

	styles := newReportStyles(cmd.OutOrStdout())
	cmd.Println(styles.Title.Render("Current Settings"))
	for _, e := range entries {
		value := e.Value
		if value == "" {
			value = "(not set)"
		}
		source := e.Source
		if e.Source == driving.SourceEnv && e.Env != "" {
			source = "env " + e.Env
		}
		cmd.Printf("  %-22s %s %s\n", e.Key, value, styles.Muted.Render("("+source+")"))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	key := strings.TrimSpace(args[0])
	if err := svc.Set(key, args[1]); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, args[1])
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	if err := svc.Unset(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s removed\n", args[0])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettingsService()
	if err != nil {
		return err
	}
	cmd.Println(svc.Path())
	return nil
}
