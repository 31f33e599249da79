package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ppm-tracker-backend/internal/api"
	"ppm-tracker-backend/internal/dateparse"
	"ppm-tracker-backend/internal/quarter"
)

func newDashboardCmd(configPath *string) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the active PPM quarter of every equipment record",
		Example: `  ppmd dashboard
  ppmd dashboard --date 01/08/2025 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref time.Time
			if date != "" {
				d, err := dateparse.ParseFlexible(date)
				if err != nil {
					return err
				}
				ref = d
			}
			return withApp(cmd, *configPath, func(cmd *cobra.Command, a *app) error {
				return printDashboard(cmd, a, ref, asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference date (defaults to today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printDashboard(cmd *cobra.Command, a *app, ref time.Time, asJSON bool) error {
	items, err := a.store.ListEquipment(cmd.Context())
	if err != nil {
		return err
	}
	sel := quarter.NewSelector(a.log, nil)
	rows := api.BuildDashboard(sel, items, ref)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	summary := sel.Summary(ref)
	fmt.Fprintf(out, "%s (%s)\n", summary.CurrentQuarterName, summary.CurrentDate)
	if len(rows) == 0 {
		fmt.Fprintln(out, "no equipment")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tNAME\tDEPARTMENT\tQUARTER\tNEXT\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Serial, r.Name, r.Department, r.ActiveQuarter, r.DisplayNextMaintenance, r.Status)
	}
	return tw.Flush()
}
