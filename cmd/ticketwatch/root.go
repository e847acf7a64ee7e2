package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/ticketwatch/internal/config"
	"github.com/varoOP/ticketwatch/internal/logger"
)

const (
	exitOK        = 0
	exitError     = 1
	exitInterrupt = 130
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
	envFile string
	verbose bool

	log = logger.NewLogger()
)

// errReported marks a failure that has already been logged
var errReported = errors.New("reported failure")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ticketwatch",
	Short: "Watch Alhambra ticket availability and alert on Telegram",
	Long: `Ticketwatch drives a headless browser through the Alhambra purchase flow,
solves the reCAPTCHA through 2Captcha, reads the calendar for the configured
dates and sends a Telegram alert when tickets can be bought.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.NewVerboseAware(verbose)

		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		return initConfig()
	},
}

// Execute runs the root command and maps the outcome to a process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if ctx.Err() != nil {
		log.Info().Msg("Interrupted by user")
		return exitInterrupt
	}

	if err != nil {
		if !errors.Is(err, errReported) {
			log.Error().Err(err).Msg("Fatal error")
		}
		return exitError
	}

	return exitOK
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading the environment (default is ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
	return nil
}

func commandLogger(cmd *cobra.Command) zerolog.Logger {
	return log.With().Str("command", cmd.Name()).Logger()
}
