package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appconfig "audio2json/internal/app/config"
)

var configPath string
var force bool

// Cmd groups configuration helpers
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the a2j configuration file",
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a YAML file",
	Long: `Write the default configuration to a YAML file.

The default path is ~/.a2j/config.yaml, or $A2J_CONFIG when set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultInitPath()
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("cannot determine a config path; pass one explicitly")
		}
		if !force {
			if _, err := os.Stat(os.ExpandEnv(path)); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
		}
		if err := appconfig.SaveTranscribeConfig(appconfig.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = appconfig.GetDefaultConfigPath()
		}
		cfg, err := appconfig.LoadTranscribeConfig(path)
		if err != nil {
			return err
		}

		if path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "# built-in defaults")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", path)
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

func defaultInitPath() string {
	if path := appconfig.GetDefaultConfigPath(); path != "" {
		return path
	}
	return appconfig.UserConfigPath()
}

func init() {
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	showCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default $A2J_CONFIG or ~/.a2j/config.yaml)")

	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
}
