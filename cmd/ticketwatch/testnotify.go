package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/app"
	"github.com/varoOP/ticketwatch/internal/config"
)

var testNotifyCmd = &cobra.Command{
	Use:     "test-notify",
	Aliases: []string{"test-telegram"},
	Short:   "Test the Telegram bot connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := commandLogger(cmd)

		settings, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		application, err := app.NewApp(log, settings)
		if err != nil {
			return err
		}
		defer application.Close()

		log.Info().Msg("Testing Telegram connection")
		if !application.TestNotifier(cmd.Context()) {
			log.Error().Msg("Telegram connection failed")
			return errReported
		}

		log.Info().Msg("Telegram connection successful")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testNotifyCmd)
}
