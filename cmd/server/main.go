package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "prismfinance/internal/adapters/http"
	pg "prismfinance/internal/adapters/postgres"
	"prismfinance/internal/config"
	"prismfinance/internal/ports"
	contractsvc "prismfinance/internal/services/contracts"
	suppliersvc "prismfinance/internal/services/suppliers"
	templatesvc "prismfinance/internal/services/templates"
	"prismfinance/internal/workers/expiry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	var _ ports.TemplateRepository = db
	var _ ports.SupplierRepository = db
	var _ ports.ContractRepository = db

	templates := templatesvc.New(db)
	suppliers := suppliersvc.New(db, db)
	contracts := contractsvc.New(db, db, db)

	srv := httpadapter.New(templates, suppliers, contracts)
	r := chi.NewRouter()
	r.Mount("/api", srv.Routes())

	go expiry.New(db, cfg.ExpiryPollInterval, cfg.ExpiryBatchSize).Run(ctx)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	slog.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
