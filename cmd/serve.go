package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/fx"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/server"
)

func runServeCmd(cmd *cobra.Command, args []string) {
	cfg := server.LoadConfig()
	log.Init(cfg.LogLevel)

	rates, err := fx.LoadRatesFile(cfg.RatesPath)
	if err != nil {
		log.L.Error("Failed to load rates file", "path", cfg.RatesPath, "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, rates)
	if err := srv.Run(); err != nil {
		log.L.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.L.Info("Server exited")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calculation HTTP API",
	Long: `Starts an HTTP server exposing the calculation pipeline.

POST /calculate accepts a JSON request with transactions and tax year
options and returns the full liability report. Configuration is read
from the environment (PORT, LOG_LEVEL, ALLOWED_ORIGINS, RATES_PATH,
MAX_BODY_BYTES, RATE_LIMIT_RPS), with a .env file loaded if present.`,
	Run: runServeCmd,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
