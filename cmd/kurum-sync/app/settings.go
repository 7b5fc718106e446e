package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kurum-rebirth/kurum-sync/internal/settings"
)

func newSettingsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write per-config user settings",
		Long: `Read and write the user settings of a sync config.

Settings answer init tasks (e.g., the save folder picked for a game) and
provide the values of path variables. Setting every required init task of a
suspended config lets a running agent reactivate it.`,
	}

	store := func() (settings.Store, error) {
		cfg, err := loadConfig(v)
		if err != nil {
			return nil, err
		}
		return settings.NewFileStore(cfg.UserSettingsDir()), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key> <name>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			value, ok, err := s.Get(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting '%s' is not set for '%s'", args[1], args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <name> <value>",
		Short: "Store one setting",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			return s.Set(args[0], args[1], args[2])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key> <name>",
		Short: "Remove one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			return s.Delete(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <key>",
		Short: "Print every setting of a config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			doc, err := s.Read(args[0])
			if err != nil {
				return err
			}
			for _, name := range doc.SortedNames() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s=%v\n", name, doc.Values[name]); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}
