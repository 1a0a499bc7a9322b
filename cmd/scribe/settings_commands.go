package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage stored preference overrides",
		Long: `Settings persist across invocations and override the configuration file.
Flags passed to generate override both.`,
	}

	settingsCmd.AddCommand(newSettingsListCommand(ctx))
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	settingsCmd.AddCommand(newSettingsUnsetCommand(ctx))

	return settingsCmd
}

func newSettingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openSettings()
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.All(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(settings.Keys()))
			for _, key := range settings.Keys() {
				value, ok := stored[key]
				if !ok {
					value = "(unset)"
				}
				rows = append(rows, []string{key, value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Key", "Value"},
				rows,
				nil,
			))
			return nil
		},
	}
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one stored setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openSettings()
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %q is not set (known keys: %s)", args[0], strings.Join(settings.Keys(), ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openSettings()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSettingsUnsetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a stored preference override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openSettings()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Unset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
			return nil
		},
	}
}
