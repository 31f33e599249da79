package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ppm-tracker-backend/internal/backup"
)

func newBackupCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and prune backups",
	}

	var settingsOnly bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a new backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, *configPath, func(cmd *cobra.Command, m *backup.Manager) error {
				write := m.CreateFull
				if settingsOnly {
					write = m.CreateSettings
				}
				info, err := write(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), info.Filename)
				return nil
			})
		},
	}
	create.Flags().BoolVar(&settingsOnly, "settings", false, "back up the settings only")

	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := backup.Kind(kind)
			if k != "" && k != backup.KindFull && k != backup.KindSettings {
				return fmt.Errorf("--type must be %s or %s", backup.KindFull, backup.KindSettings)
			}
			return withBackups(cmd, *configPath, func(cmd *cobra.Command, m *backup.Manager) error {
				infos, err := m.List(k)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE\tFILENAME\tSIZE\tAGE (DAYS)")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", info.Kind, info.Filename, info.SizeBytes, info.AgeDays)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&kind, "type", "", "only list full or settings backups")

	restore := &cobra.Command{
		Use:   "restore <filename>",
		Short: "Restore a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, *configPath, func(cmd *cobra.Command, m *backup.Manager) error {
				if err := m.Restore(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <filename>",
		Short: "Delete a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, *configPath, func(cmd *cobra.Command, m *backup.Manager) error {
				return m.Delete(args[0])
			})
		},
	}

	var maxAgeDays int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(cmd *cobra.Command, a *app) error {
				days := a.cfg.Backup.MaxAgeDays
				if cmd.Flags().Changed("max-age-days") {
					days = maxAgeDays
				}
				m := backup.NewManager(a.cfg.Backup.Dir, a.store, a.log)
				removed, err := m.Cleanup(time.Duration(days) * 24 * time.Hour)
				for _, name := range removed {
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
				}
				return err
			})
		},
	}
	cleanup.Flags().IntVar(&maxAgeDays, "max-age-days", 0, "override backup.max_age_days")

	cmd.AddCommand(create, list, restore, remove, cleanup)
	return cmd
}

func withBackups(cmd *cobra.Command, configPath string, fn func(*cobra.Command, *backup.Manager) error) error {
	return withApp(cmd, configPath, func(cmd *cobra.Command, a *app) error {
		return fn(cmd, backup.NewManager(a.cfg.Backup.Dir, a.store, a.log))
	})
}
