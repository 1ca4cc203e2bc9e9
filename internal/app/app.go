// Package app wires configuration, storage backends, the provisioning
// coordinator and the session manager into the interactive console.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrijs2005/eduassist/internal/cli"
	"github.com/dmitrijs2005/eduassist/internal/config"
	"github.com/dmitrijs2005/eduassist/internal/credentials"
	"github.com/dmitrijs2005/eduassist/internal/filex"
	"github.com/dmitrijs2005/eduassist/internal/localstate"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/metrics"
	"github.com/dmitrijs2005/eduassist/internal/profiles"
	"github.com/dmitrijs2005/eduassist/internal/provisioning"
	"github.com/dmitrijs2005/eduassist/internal/repositories/orphans"
	profilesrepo "github.com/dmitrijs2005/eduassist/internal/repositories/profiles"
	"github.com/dmitrijs2005/eduassist/internal/repositories/repomanager"
	"github.com/dmitrijs2005/eduassist/internal/session"
	"github.com/dmitrijs2005/eduassist/internal/telemetry"
)

const serviceName = "eduassist"

// openDB is a test seam for sql.Open.
var openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	console *cli.App
	manager *session.Manager
	closers []func(context.Context) error
}

// NewApp builds every component named by c. Console I/O goes to in/out and
// JSON logs to logOut. On error anything already opened is closed.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (_ *App, err error) {
	logger := logging.NewJSON(logOut, c.LogLevel)
	app := &App{config: c, logger: logger, metrics: metrics.New(prometheus.NewRegistry())}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	shutdown, err := telemetry.Setup(ctx, serviceName, c.OtelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}
	app.closers = append(app.closers, shutdown)

	var (
		db *sql.DB
		rm = repomanager.NewPostgresRepositoryManager()
	)
	if c.IdentityBackend == config.BackendPostgres || c.ProfileBackend == config.BackendPostgres {
		if db, err = app.openDatabase(ctx, rm); err != nil {
			return nil, err
		}
	}

	var (
		creds     credentials.Service
		confirmer cli.Confirmer
		orphanLog orphans.Repository
	)
	switch c.IdentityBackend {
	case config.BackendPostgres:
		p := credentials.NewProvider(db, rm, credentials.ProviderConfig{
			SecretKey:            c.SecretKey,
			SessionValidity:      c.SessionValidity,
			VerificationValidity: c.VerificationValidity,
			VerificationURL:      c.VerificationURL,
		}, credentials.NewLogMailer(logger), logger)
		if n, err := p.PurgeExpiredSessions(ctx); err != nil {
			logger.Warn(ctx, "expired session purge failed", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "expired sessions purged", "count", n)
		}
		creds, confirmer, orphanLog = p, p, rm.Orphans(db)
	default:
		creds, orphanLog = credentials.NewMemoryService(), orphans.NewMemoryRepository()
	}

	profileRepo, err := app.profileRepository(ctx, db, rm)
	if err != nil {
		return nil, err
	}

	store, err := app.localStore(ctx)
	if err != nil {
		return nil, err
	}

	rec := profiles.NewReconciler(profileRepo, logger, nil)
	coord := provisioning.NewCoordinator(creds, rec, orphanLog, app.metrics, logger,
		provisioning.WithCompensationTimeout(c.CompensationTimeout))
	app.manager = session.NewManager(creds, rec, store, app.metrics, logger,
		session.WithRememberFor(c.RememberFor))

	if _, err := app.manager.Restore(ctx); err != nil && !errors.Is(err, session.ErrNoStoredSession) {
		logger.Warn(ctx, "stored session could not be restored", "error", err)
	}

	app.console = cli.NewApp(coord, app.manager, confirmer, orphanLog, in, out)
	return app, nil
}

func (app *App) openDatabase(ctx context.Context, rm repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return db.Close() })

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, nil
}

func (app *App) profileRepository(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) (profilesrepo.Repository, error) {
	c := app.config
	switch c.ProfileBackend {
	case config.BackendPostgres:
		return rm.Profiles(db), nil

	case config.BackendMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(c.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo init error: %w", err)
		}
		app.closers = append(app.closers, client.Disconnect)
		return profilesrepo.NewMongoRepository(client.Database(c.MongoDatabase)), nil

	case config.BackendS3:
		repo, err := profilesrepo.NewS3Repository(ctx, profilesrepo.S3Options{
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return repo, nil

	case config.BackendMemory:
		return profilesrepo.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown profile backend %q", c.ProfileBackend)
}

func (app *App) localStore(ctx context.Context) (localstate.Store, error) {
	if app.config.LocalStatePath == "" {
		return localstate.NewMemoryStore(), nil
	}
	path, err := filex.EnsureParentDir(app.config.LocalStatePath)
	if err != nil {
		return nil, fmt.Errorf("local state init error: %w", err)
	}
	store, err := localstate.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("local state init error: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return store.Close() })
	return store, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startMetricsServer(ctx context.Context, wg *sync.WaitGroup) {
	if app.config.MetricsAddr == "" {
		return
	}
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           app.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.logger.Info(ctx, "metrics listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "metrics server failed", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Run blocks until the console exits or a termination signal arrives, then
// releases every resource.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "identity_backend", app.config.IdentityBackend,
		"profile_backend", app.config.ProfileBackend)
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	app.startMetricsServer(ctx, &wg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.console.Root(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// A registration may still be compensating; its rollback outlives ctx.
		if !app.console.WaitIdle(app.config.CompensationTimeout) {
			app.logger.Warn(ctx, "command still running at shutdown", "waited", app.config.CompensationTimeout)
		}
	}
	cancelFunc()
	wg.Wait()

	if err := app.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "shutdown incomplete", "error", err)
	}
}

// Close releases resources in reverse order of acquisition.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
