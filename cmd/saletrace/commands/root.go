package commands

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"saletrace/internal/analytics"
	"saletrace/internal/config"
	"saletrace/internal/eventlog"
	"saletrace/internal/logging"
	"saletrace/internal/rpc"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	dataPath string
	cfg      *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "saletrace",
	Short: "Saletrace is a payment-timeline analytics server for sales and invoices",
	Long: `Saletrace computes elapsed-time statistics between sale and invoice lifecycle
milestones (invoicing delay, payment delay, settlement), classifies client
payment reliability, and projects payment dates for pending invoices from
historical delay distributions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("data", cfg.DataPath).
			Msg("Saletrace starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("Tool server starting Stdio loop")
		server := rpc.NewServer(cfg)
		if err := server.Serve(); err != nil {
			log.Fatal().Err(err).Msg("Server loop failed")
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analytics pipeline once and print the report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := eventlog.NewSnapshotRepository(cfg.DataPath)
		snap, err := repo.Load(context.Background())
		if err != nil {
			return err
		}

		session := analytics.NewSession(snap, cfg.Filter, cfg.Classification, cfg.Tolerance, time.Now().UTC())
		report := session.Analyze()

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "dataset directory (overrides DATA_PATH)")
	rootCmd.AddCommand(analyzeCmd)
}
