package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
	"github.com/MrEthical07/deliveryAuth/credentials"
	"github.com/MrEthical07/deliveryAuth/internal/api"
	"github.com/MrEthical07/deliveryAuth/internal/config"
	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/metrics/export/prometheus"
	"github.com/MrEthical07/deliveryAuth/refresh"
	"github.com/MrEthical07/deliveryAuth/refresh/sqlstore"
)

const shutdownTimeout = 10 * time.Second

// deps holds the backends chosen by configuration.
type deps struct {
	redis     *redis.Client
	db        *sql.DB
	lookup    deliveryAuth.CredentialLookup
	fileStore *credentials.FileStore
	store     refresh.Store
	closers   []func() error
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func (d *deps) health(ctx context.Context) error {
	if d.redis != nil {
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func openDeps(ctx context.Context, cfg config.Config, logger logging.Logger) (*deps, error) {
	d := &deps{}

	switch cfg.RefreshStore {
	case config.StoreRedis:
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		d.closers = append(d.closers, d.redis.Close)
	case config.StorePostgres, config.StoreSQLite:
		dialect, err := sqlstore.ParseDialect(cfg.RefreshStore)
		if err != nil {
			return nil, err
		}
		db, err := sqlstore.Open(ctx, dialect, cfg.SQLDSN())
		if err != nil {
			return nil, err
		}
		d.db = db
		d.closers = append(d.closers, db.Close)

		store, err := sqlstore.NewRefreshStore(db, dialect, refresh.Config{
			TTL:              cfg.RefreshTokenTTL,
			ExpiredRetention: deliveryAuth.DefaultConfig().Refresh.ExpiredRetention,
		})
		if err != nil {
			d.close()
			return nil, err
		}
		d.store = store
		if cfg.CredentialStore == config.CredentialsSQL {
			d.lookup = sqlstore.NewAccountStore(db, dialect)
		}
	}

	if cfg.CredentialStore == config.CredentialsFile {
		fs, err := credentials.NewFileStore(cfg.AccountsFile, logger.With("component", "credentials"))
		if err != nil {
			d.close()
			return nil, fmt.Errorf("accounts file: %w", err)
		}
		d.fileStore = fs
		d.lookup = fs
	}
	if d.lookup == nil {
		d.close()
		return nil, errors.New("no credential store configured")
	}
	return d, nil
}

func buildEngine(cfg config.Config, d *deps, logger logging.Logger) (*deliveryAuth.Engine, error) {
	b := deliveryAuth.New().
		WithConfig(cfg.Engine()).
		WithCredentialLookup(d.lookup).
		WithLogger(logger.With("component", "engine"))
	if d.redis != nil {
		b.WithRedis(d.redis)
	}
	if d.store != nil {
		b.WithRefreshStore(d.store)
	}
	if cfg.AuditLog {
		b.WithAuditSink(deliveryAuth.NewJSONWriterSink(os.Stdout))
	}
	return b.Build()
}

func run(ctx context.Context, cfg config.Config, logger logging.Logger) error {
	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	engine, err := buildEngine(cfg, d, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, w := range engine.Lint() {
		logger.Warn(ctx, "config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}

	if d.fileStore != nil {
		if err := d.fileStore.Watch(ctx); err != nil {
			logger.Warn(ctx, "accounts file watch disabled", "error", err)
		}
	}
	go engine.RunPurger(ctx, cfg.PurgeInterval)

	opts := api.Options{
		Logger:     logger.With("component", "api"),
		Health:     d.health,
		TrustProxy: cfg.TrustProxy,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = prometheus.New(engine).Handler()
	}
	srv := api.New(engine, opts).Server(cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.HTTPAddr, "refresh_store", cfg.RefreshStore)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
