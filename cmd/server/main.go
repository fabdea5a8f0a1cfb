package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/finbase/go-accounts"
	"github.com/finbase/go-accounts/storage"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	// A missing signing secret is a fatal configuration error, never a per
	// request one.
	if cfg.Auth.GetSigningKey() == "" {
		lgr.Error("refusing to start", "error", accounts.ErrMissingSigningSecret)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := setupPersistence(ctx, cfg, lgr)
	if err != nil {
		lgr.Error("unable to set up persistence", "error", err)
		os.Exit(1)
	}

	blobStore, err := setupBlobStore(ctx, cfg)
	if err != nil {
		lgr.Error("unable to set up blob store", "error", err)
		os.Exit(1)
	}

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	service := accounts.NewAccountService(repo, cfg.Auth).
		WithLogger(lgr.GetLogger("auth")).
		WithBlobStore(blobStore)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))

	controller := accounts.NewHTTPController(service).
		WithLogger(lgr.GetLogger("http"))
	controller.RegisterRoutes(srv.Router())

	lgr.Info("listening", "addr", cfg.Addr)
	srv.Serve(cfg.Addr)

	waitExitSignal()
}

func setupPersistence(ctx context.Context, cfg *Config, lgr *glog.BaseLogger) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*accounts.User)(nil))

	client, err := persistence.New(cfg.Persistence, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(lgr.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}

func setupBlobStore(ctx context.Context, cfg *Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:        cfg.Storage.S3Region,
			Bucket:        cfg.Storage.S3Bucket,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			BaseEndpoint:  cfg.Storage.S3BaseEndpoint,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
	default:
		return storage.NewLocalStore(cfg.Storage.UploadsDir, cfg.Storage.UploadsPrefix)
	}
}

func waitExitSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
