package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexanderramin/invoiceplan/internal/access"
	"github.com/alexanderramin/invoiceplan/internal/cli"
	"github.com/alexanderramin/invoiceplan/internal/cli/formatter"
	"github.com/alexanderramin/invoiceplan/internal/config"
	"github.com/alexanderramin/invoiceplan/internal/db"
	"github.com/alexanderramin/invoiceplan/internal/remote"
	"github.com/alexanderramin/invoiceplan/internal/repository"
	"github.com/alexanderramin/invoiceplan/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	ctx := context.Background()

	repo, closer, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		// Use-case events are Info; keep them visible whatever the repository log level.
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr, slog.LevelInfo))
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		formatter.DisableColor()
	}

	app := &cli.App{
		Plans: service.NewInvoicePlanService(repo, observers...),
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// openRepository wires the configured backend. The returned closer releases
// its connection.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.InvoicePlanRepository, io.Closer, error) {
	opts := []repository.Option{repository.WithLogger(logger)}

	switch cfg.Backend {
	case config.BackendRemote:
		client, err := remote.NewFirestoreClient(ctx, cfg.FirestoreProject, cfg.FirestoreCredentials)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to firestore: %w", err)
		}
		loader := access.Loader(repository.NewRemoteAssignmentLoader(client, cfg.User))
		if cfg.ScopeFile != "" {
			loader = access.FileLoader(cfg.ScopeFile, cfg.User)
		}
		scope := access.NewAssignmentScope(loader)
		return repository.NewRemotePlanRepository(client, scope, opts...), client, nil

	default:
		database, err := db.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		uow := db.NewRetryingUnitOfWork(db.NewDialectUnitOfWork(database, cfg.DBDriver), cfg.Retry, logger)
		loader := access.Loader(repository.NewSQLAssignmentLoader(database, cfg.DBDriver, cfg.User))
		if cfg.ScopeFile != "" {
			loader = access.FileLoader(cfg.ScopeFile, cfg.User)
		}
		scope := access.NewAssignmentScope(loader)
		return repository.NewSQLPlanRepository(database, uow, cfg.DBDriver, scope, opts...), database, nil
	}
}
