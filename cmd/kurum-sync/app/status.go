package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	v1 "github.com/kurum-rebirth/kurum-sync/internal/api/v1"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync status of every config",
		Long: `Show the sync status recorded by the agent for every config.

Output is a table on a terminal and JSON otherwise, unless --format is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			statuses, err := status.NewFileStatusPersistence(cfg.StatusDir()).LoadAllStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load sync status: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "" {
				format = formatJSON
				if isTerminal(out) {
					format = formatTable
				}
			}

			switch format {
			case formatJSON:
				return writeStatusJSON(out, statuses)
			case formatTable:
				return writeStatusTable(out, statuses)
			default:
				return fmt.Errorf("unsupported format '%s'", format)
			}
		},
	}
	cmd.Flags().String("format", "", "Output format (table, json)")
	return cmd
}

func sortedStatuses(statuses map[string]*status.SyncStatus) []v1.ConfigStatus {
	configs := make([]v1.ConfigStatus, 0, len(statuses))
	for key, s := range statuses {
		if s == nil {
			continue
		}
		configs = append(configs, v1.ConfigStatus{Key: key, SyncStatus: s})
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Key < configs[j].Key
	})
	return configs
}

func writeStatusJSON(w io.Writer, statuses map[string]*status.SyncStatus) error {
	configs := sortedStatuses(statuses)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v1.ConfigListResponse{Configs: configs, Total: len(configs)})
}

func writeStatusTable(w io.Writer, statuses map[string]*status.SyncStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header("Key", "Phase", "Last Operation", "Last Backup", "Last Restore", "Message")
	for _, c := range sortedStatuses(statuses) {
		row := []string{
			c.Key,
			string(c.Phase),
			string(c.LastOperation),
			formatTime(c.LastBackupTime),
			formatTime(c.LastRestoreTime),
			c.Message,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render status row: %w", err)
		}
	}
	return table.Render()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
