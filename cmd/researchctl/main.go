package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"research-review-api/config"
)

var (
	cfg    *config.Config
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

var RootCmd = cobra.Command{
	Use:           "researchctl",
	Short:         "Administer the research review database",
	Long:          "Administer the research review database: schema migration and user accounts.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger = config.NewLogger(os.Stderr, cfg.LogLevel, "console")
		return nil
	},
}

func main() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg(RootCmd.Name() + " failed")
		os.Exit(1)
	}
}
