package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/app"
	"github.com/varoOP/ticketwatch/internal/config"
	"github.com/varoOP/ticketwatch/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check ticket availability for the configured dates",
	Long: `Check runs one availability check:
1. Loads the purchase page and accepts cookies
2. Solves the reCAPTCHA through 2Captcha
3. Opens the calendar and moves to the month of the target dates
4. Reads the status of every target date
5. Sends one Telegram alert listing the dates that can be bought

With --dry-run the alert is skipped. The exit code is 1 when the check failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noHeadless, _ := cmd.Flags().GetBool("no-headless")
		log := commandLogger(cmd)

		settings, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if noHeadless {
			settings = settings.WithHeadless(false)
		}

		application, err := app.NewApp(log, settings)
		if err != nil {
			return err
		}
		defer application.Close()

		log.Info().Str("month", settings.TargetMonth().String()).Str("ticket_type", settings.TicketType).Msg("Target")

		result := application.Check(cmd.Context(), dryRun)
		if result.Failed() {
			log.Error().Str("error", result.Error).Msg("Check failed")
			return errReported
		}

		for _, r := range result.Results {
			log.Info().Str("date", r.Date.Format(domain.DateLayout)).Str("status", string(r.Status)).Msg("Status")
		}
		log.Info().Bool("available", result.IsAvailable()).Int("available_dates", len(result.AvailableDates)).Msg("Check complete")

		switch {
		case result.NotificationSent:
			log.Info().Msg("Notification sent")
		case dryRun && result.IsAvailable():
			log.Info().Msg("Notification skipped (dry run)")
		}

		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("dry-run", false, "check availability without sending notifications")
	checkCmd.Flags().Bool("no-headless", false, "run the browser in visible mode")
	rootCmd.AddCommand(checkCmd)
}
