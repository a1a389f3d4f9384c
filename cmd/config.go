package cmd

import (
	"fmt"

	"github.com/marcus/appman/internal/config"
	"github.com/marcus/appman/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage appman configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		path, err := configPath()
		if err != nil {
			return report(err)
		}
		if err := config.Set(path, key, val); err != nil {
			return report(err)
		}
		output.Success("set %s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return report(err)
		}
		val, err := config.Get(path, args[0])
		if err != nil {
			return report(err)
		}
		return emit(map[string]string{args[0]: val}, func() {
			fmt.Println(val)
		})
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List config file values and the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return report(err)
		}
		values := make(map[string]string)
		for _, key := range config.Keys() {
			val, err := config.Get(path, key)
			if err != nil {
				return report(err)
			}
			values[key] = val
		}
		settings, err := config.Resolve(path)
		if err != nil {
			return report(err)
		}

		return emit(map[string]interface{}{"file": values, "effective": settings}, func() {
			for _, key := range config.Keys() {
				val := values[key]
				if val == "" {
					val = "(unset)"
				}
				fmt.Printf("%-14s %s\n", key, val)
			}
			fmt.Print(output.SectionHeader("Effective"))
			fmt.Printf("%-14s %s\n", "endpoint", settings.Endpoint("<op>"))
			fmt.Printf("%-14s %s\n", "timeout", settings.Timeout)
			fmt.Printf("%-14s %s/%s\n", "log", settings.LogLevel, settings.LogFormat)
			fmt.Printf("%-14s %s\n", "theme", settings.Theme)
		})
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config, keymap and log file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return report(err)
		}
		paths := map[string]string{
			"config": path,
			"keymap": config.KeymapPath(path),
			"log":    config.LogPath(path),
		}
		return emit(paths, func() {
			fmt.Printf("config  %s\n", paths["config"])
			fmt.Printf("keymap  %s\n", paths["keymap"])
			fmt.Printf("log     %s\n", paths["log"])
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd, configPathCmd)
}
