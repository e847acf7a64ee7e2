package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/app"
	"github.com/varoOP/ticketwatch/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent availability checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		log := commandLogger(cmd)

		settings, err := config.LoadWithoutCredentials(viper.GetViper())
		if err != nil {
			return err
		}

		application, err := app.NewApp(log, settings)
		if err != nil {
			return err
		}
		defer application.Close()

		entries, err := application.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHECKED AT\tDATES\tAVAILABLE\tNOTIFIED\tERROR")
		for _, e := range entries {
			notified := "no"
			switch {
			case e.NotificationSent:
				notified = "yes"
			case e.DryRun:
				notified = "dry-run"
			}

			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				e.ID,
				e.CheckedAt.Local().Format(time.DateTime),
				strings.Join(e.Dates, ","),
				orDash(strings.Join(e.AvailableDates, ",")),
				notified,
				orDash(e.Error),
			)
		}
		return w.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of checks to show")
	rootCmd.AddCommand(historyCmd)
}
