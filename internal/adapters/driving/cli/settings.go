package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// settingsKeys lists the known configuration keys in display order.
var settingsKeys = []string{
	"similarity_threshold",
	"batch_size",
	"data_dir",
	"exclude_file",
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure scan defaults.

Known keys:
  similarity_threshold - near-duplicate flagging threshold in (0, 1]
  batch_size           - CSV artifact flush interval in rows
  data_dir             - catalog database directory
  exclude_file         - exclusion list applied to every scan`,
	RunE: runSettingsList,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current settings",
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a single setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("settings store not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	for _, key := range settingsKeys {
		cmd.Printf("  %-20s %s\n", key, displayValue(key))
	}
	cmd.Println()
	cmd.Printf("Config file: %s\n", configStore.Path())

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("settings store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("setting %q is not set", args[0])
	}
	cmd.Printf("%v\n", val)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("settings store not configured")
	}

	key, raw := args[0], args[1]
	value, err := parseSettingValue(key, raw)
	if err != nil {
		return err
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Set %s to %v.\n", key, value)

	return nil
}

// Helper functions.

func displayValue(key string) string {
	val, ok := configStore.Get(key)
	if !ok {
		return "(not set)"
	}
	return fmt.Sprintf("%v", val)
}

// parseSettingValue converts raw input to the key's natural type and
// rejects unknown keys so typos do not end up in the config file.
func parseSettingValue(key, raw string) (any, error) {
	switch key {
	case "similarity_threshold":
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number: %w", key, err)
		}
		if v <= 0 || v > 1 {
			return nil, fmt.Errorf("%w: %s %v outside (0, 1]", domain.ErrInvalidConfig, key, v)
		}
		return v, nil
	case "batch_size":
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfig, key)
		}
		return v, nil
	case "data_dir", "exclude_file":
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown setting %q", key)
	}
}
