// Package app provides the command line interface of the kurum-sync agent.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/versions"
)

const appName = "kurum-sync"

// NewRootCmd creates the root command with every subcommand attached.
// Flags are bound into a fresh viper instance reading KURUM_* variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               appName,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Kurum save game sync agent",
		Long: `kurum-sync watches game processes and backs up their save files to remote
storage when they exit, and restores newer saves from other machines.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the agent configuration file (YAML)")
	rootCmd.PersistentFlags().String("data-dir", "", "Override the data directory")
	for _, name := range []string{"config", "data-dir"} {
		if err := v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(newRunCmd(v))
	rootCmd.AddCommand(newPollCmd(v))
	rootCmd.AddCommand(newBackupCmd(v))
	rootCmd.AddCommand(newRestoreCmd(v))
	rootCmd.AddCommand(newStatusCmd(v))
	rootCmd.AddCommand(newSettingsCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the host configuration named by --config. Without a
// configuration file the agent keeps its data below the XDG data home.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := &config.Config{}
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(config.WithConfigPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		slog.Debug("Loaded configuration", "path", path)
	} else {
		cfg.DataDir = filepath.Join(xdg.DataHome, appName)
	}

	if dataDir := v.GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(out, string(output))
				return err
			}

			_, err = fmt.Fprintf(out, "%s %s (commit %s, built %s, %s, %s)\n",
				appName, info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
