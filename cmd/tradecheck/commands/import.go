package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dproquant/tradecheck/internal/loader"
	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/database"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a transaction CSV into the database",
	Long: `Parses a transaction export and stores the trades, so the daily
snapshot job and the web UI can audit them without re-uploading.

Example:
  tradecheck import --file tradedata/202512.csv`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFile, "file", "", "transaction CSV file (required)")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, _, err := initDeps()
	if err != nil {
		return err
	}

	trades, err := loader.New(log).LoadFile(importFile)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return fmt.Errorf("no trades in %s", importFile)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewRepository(db.Pool)
	if err := repo.Migrate(cmd.Context()); err != nil {
		return err
	}

	importID, err := repo.SaveTrades(cmd.Context(), trades)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d trades (batch %s)\n", len(trades), importID)
	return nil
}
