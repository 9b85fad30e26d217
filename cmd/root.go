package cmd

import (
	"fmt"
	"os"

	"erpsheets/internal/config"
	"erpsheets/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var (
	// appConfig is loaded once per invocation by the root pre-run hook.
	appConfig *config.Config
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "erpsheets",
	Short: "Receivables and product margin analysis over ERP spreadsheet exports",
	Long: `erpsheets imports the receivables export ("scadenzario clienti") and the
product income export ("percentili prodotto") of the ERP into a database
spreadsheet, then answers questions over it: open balances and overdue
amounts per client, margins per product and per client, and margin reports
with anomaly annotations for internally produced goods.

The database lives in a Google Spreadsheet (DATA_BACKEND=sheets, needs
GOOGLE_SHEET_URL and GOOGLE_APPLICATION_CREDENTIALS) or in a local workbook
(DATA_BACKEND=xlsx, needs XLSX_PATH). Exports can also be read from local
.csv or .xlsx files with --file.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().Str("version", version).Msg("erpsheets executed without a command")

		if configErr != nil {
			fmt.Printf("Configurazione non valida: %v\n", configErr)
		} else {
			fmt.Printf("Backend: %s\n", appConfig.DataBackend)
		}
		fmt.Println("Use --help to see available commands and options.")
	},
}

// loadEnvironment reads the env file, loads the configuration and sets up logging.
// A configuration error is kept for the commands that open a backend.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	appConfig, configErr = config.Load()
	logCfg := logger.DefaultConfig()
	if configErr == nil {
		logCfg = appConfig.GetLoggerConfig()
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		logCfg.Level = level
	}
	if err := logger.Setup(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.WithComponent("root")
	if configErr != nil {
		log.Warn().Err(configErr).Msg("Configuration is incomplete")
		return nil
	}
	log.Debug().
		Str("command", cmd.Name()).
		Str("backend", appConfig.DataBackend).
		Msg("Configuration loaded")
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Errore: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading the configuration")
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}
