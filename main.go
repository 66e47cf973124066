package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"smartflow/app"
	"smartflow/config"
	"smartflow/logging"
)

func main() {
	// Load config from .env file / environment
	cfg := config.LoadFromEnv()

	logging.Setup(cfg.LogLevel)

	// Create and start app
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Error().Err(err).Msg("application exited with error")
		os.Exit(1)
	}
}
