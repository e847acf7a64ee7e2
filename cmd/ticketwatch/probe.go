package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/app"
	"github.com/varoOP/ticketwatch/internal/config"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fetch the purchase page without a browser and check the reCAPTCHA site key",
	Long: `Probe fetches site_url with a plain HTTP client, prints the status code and
every reCAPTCHA site key the page declares, and tells whether recaptcha_site_key
is among them. No credentials are needed and no solver credit is spent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		report, err := application.Probe(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "URL:        %s\n", report.URL)
		fmt.Fprintf(out, "Status:     %d\n", report.StatusCode)
		fmt.Fprintf(out, "Site keys:  %s\n", strings.Join(report.SiteKeys, ", "))
		fmt.Fprintf(out, "Configured: %s (found: %t)\n", settings.RecaptchaSiteKey, report.SiteKeyMatches)

		if !report.SiteKeyMatches {
			log.Warn().Msg("Configured site key not found on the page")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
