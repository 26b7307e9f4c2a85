package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dproquant/tradecheck/internal/api"
	"github.com/dproquant/tradecheck/internal/api/handlers"
	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/internal/loader"
	"github.com/dproquant/tradecheck/internal/scheduler"
	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/database"
)

var (
	servePort string
	serveNoDB bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the audit API server",
	Long: `Starts the HTTP server backing the web UI.

Endpoints:
  GET  /health             - health check
  POST /api/audit          - upload a transaction file and run an audit
  GET  /api/reports        - list stored reports
  GET  /api/reports/{id}   - fetch one stored report
  GET  /api/notes          - list trade notes
  POST /api/notes          - create a trade note

With a database configured, a cron job re-audits the stored trade set
daily and persists the report. --no-db runs upload-only audits without
persistence.

Example:
  tradecheck serve
  tradecheck serve --port 8000 --no-db`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: config)")
	serveCmd.Flags().BoolVar(&serveNoDB, "no-db", false, "run without a database")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, rb, err := initDeps()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	ld := loader.New(log)

	var repo *store.Repository
	var sched *scheduler.Scheduler

	if !serveNoDB {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo = store.NewRepository(db.Pool)
		if err := repo.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info("Connected to database")

		account := engine.Account{
			MonthlyStartCapital: decimal.NewFromFloat(cfg.Account.MonthlyStartCapital),
			Scale:               cfg.Account.Scale,
			OperationContracts:  cfg.Account.OperationContracts,
		}
		auditor, err := engine.NewAuditor(rb, account, log)
		if err != nil {
			return err
		}

		sched = scheduler.New(auditor, repo, log)
		if err := sched.Start(cfg.SnapshotSchedule); err != nil {
			return err
		}
		defer sched.Stop()
	}

	auditHandler := handlers.NewAuditHandler(rb, ld, repo, log)
	var reportsHandler *handlers.ReportsHandler
	var notesHandler *handlers.NotesHandler
	if repo != nil {
		reportsHandler = handlers.NewReportsHandler(repo, log)
		notesHandler = handlers.NewNotesHandler(repo, log)
	}

	router := api.NewRouter(auditHandler, reportsHandler, notesHandler, cfg.AuditRatePerMinute, log)
	server := api.New(cfg, log, router)

	// Graceful shutdown on SIGINT/SIGTERM.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
