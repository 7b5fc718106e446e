package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syncapp "github.com/kurum-rebirth/kurum-sync/internal/app"
	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

func newPollCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run a single polling tick and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *syncapp.AppComponents) error {
				return c.Orchestrator.Poll(ctx)
			})
		},
	}
}

func newBackupCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <key>",
		Short: "Back up a sync config now, regardless of its watchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *syncapp.AppComponents) error {
				cfg, err := lookupConfig(c, args[0])
				if err != nil {
					return err
				}
				if err := c.Orchestrator.Backup(ctx, cfg); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s\n", cfg.Key)
				return err
			})
		},
	}
}

func newRestoreCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <key>",
		Short: "Restore a sync config now, regardless of its markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd.Context(), v, func(ctx context.Context, c *syncapp.AppComponents) error {
				cfg, err := lookupConfig(c, args[0])
				if err != nil {
					return err
				}
				if err := c.Orchestrator.Restore(ctx, cfg); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", cfg.Key)
				return err
			})
		},
	}
}

// withComponents builds the sync components under the instance lock,
// initializes the status records and runs fn
func withComponents(
	ctx context.Context,
	v *viper.Viper,
	fn func(context.Context, *syncapp.AppComponents) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	unlock, err := syncapp.LockDataDir(cfg)
	if err != nil {
		return err
	}
	defer unlock()

	components, err := syncapp.BuildComponents(ctx, syncapp.WithConfig(cfg))
	if err != nil {
		return err
	}
	if err := components.StateService.Initialize(ctx, components.Configs.All(), cfg.GetPlatform()); err != nil {
		return fmt.Errorf("failed to initialize sync status: %w", err)
	}
	return fn(ctx, components)
}

func lookupConfig(c *syncapp.AppComponents, key string) (*syncconfig.SyncConfig, error) {
	cfg, ok := c.Configs.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown sync config '%s'", key)
	}
	return cfg, nil
}
