// Package server wires the auth and search components together and runs
// the HTTP, gRPC and NATS front ends until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/auth"
	"github.com/dmitrijs2005/moviesauth/internal/server/cache"
	"github.com/dmitrijs2005/moviesauth/internal/server/config"
	gs "github.com/dmitrijs2005/moviesauth/internal/server/grpc"
	"github.com/dmitrijs2005/moviesauth/internal/server/httpapi"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/natsverify"
	"github.com/dmitrijs2005/moviesauth/internal/server/oauth"
	"github.com/dmitrijs2005/moviesauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moviesauth/internal/server/revocation"
	"github.com/dmitrijs2005/moviesauth/internal/server/search"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
	"github.com/nats-io/nats.go"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db       *sql.DB
	cache    cache.Cache
	limiter  ratelimit.Limiter
	closers  []func() error
	natsConn *nats.Conn

	userService  *services.UserService
	roleService  *services.RoleService
	oauthService *services.OAuthService
	films        *search.Service[models.Film]
	genres       *search.Service[models.Genre]
	persons      *search.Service[models.Person]
}

// NewApp connects to every backend, runs migrations and builds the services.
// Postgres, the cache and the index are retried with backoff so the app can
// start alongside its dependencies.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	app := &App{config: c, logger: logging.New(c.AppEnv)}

	if err := app.initStorage(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initSearch(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}
	app.initNATS()

	return app, nil
}

func (app *App) waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := ping(ctx)
		if err != nil {
			app.logger.Warn(ctx, "backend not ready", "backend", name, "attempt", attempt, "error", err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("%s unavailable: %w", name, err)
	}
	return nil
}

func (app *App) initStorage(ctx context.Context) error {
	db, err := repomanager.OpenDB(app.config.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	if err := app.waitFor(ctx, "postgres", db.PingContext); err != nil {
		return err
	}

	if app.config.RedisHost == "" {
		mem := cache.NewMemoryCache()
		go mem.RunCleanup(ctx, time.Minute)
		app.cache = mem
		app.limiter = ratelimit.NewLocalLimiter()
		app.logger.Warn(ctx, "REDIS_HOST is empty, using in-process cache")
		return nil
	}

	var rc *cache.RedisCache
	err = app.waitFor(ctx, "redis", func(ctx context.Context) error {
		var err error
		rc, err = cache.DialRedis(ctx, app.config.RedisAddr())
		return err
	})
	if err != nil {
		return err
	}
	app.cache = rc
	app.limiter = ratelimit.NewRedisLimiter(rc.Client())
	app.closers = append(app.closers, rc.Close)
	return nil
}

func (app *App) initSearch(ctx context.Context) error {
	es, err := search.NewElasticClient(app.config.ElasticURL())
	if err != nil {
		return fmt.Errorf("elasticsearch client: %w", err)
	}
	idx := search.NewElasticIndex(es)
	if err := app.waitFor(ctx, "elasticsearch", idx.Ping); err != nil {
		return err
	}

	names := search.IndexNames{
		Films:   app.config.FilmIndex,
		Genres:  app.config.GenreIndex,
		Persons: app.config.PersonIndex,
	}
	if err := idx.EnsureIndexes(ctx, names); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	ttl := app.config.CacheTTL
	app.films = search.NewService[models.Film](idx, app.cache, names.Films, ttl, app.logger)
	app.genres = search.NewService[models.Genre](idx, app.cache, names.Genres, ttl, app.logger)
	app.persons = search.NewService[models.Person](idx, app.cache, names.Persons, ttl, app.logger)
	return nil
}

func (app *App) initServices() error {
	signer, err := auth.NewSigner(app.config.SecretKey, app.config.Algorithm)
	if err != nil {
		return fmt.Errorf("token signer: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	revocations := revocation.NewStore(app.cache)
	app.userService = services.NewUserService(app.db, rm, signer, revocations, app.config, app.logger)
	app.roleService = services.NewRoleService(app.db, rm, app.logger)

	var providers []oauth.Provider
	if app.config.YandexClientID != "" {
		providers = append(providers, oauth.NewYandex(app.config.YandexClientID, app.config.YandexClientSecret, app.config.YandexRedirectURI))
	}
	if app.config.GoogleClientID != "" {
		providers = append(providers, oauth.NewGoogle(app.config.GoogleClientID, app.config.GoogleClientSecret, app.config.GoogleRedirectURI))
	}
	if len(providers) > 0 {
		registry := oauth.NewRegistry(providers...)
		app.oauthService = services.NewOAuthService(app.userService, registry, app.logger)
		app.logger.Info(context.Background(), "OAuth providers enabled", "providers", registry.Names())
	}
	return nil
}

// initNATS connects when NATS_URL is set. The verify responder is optional:
// a failed connection is logged and the app runs without it.
func (app *App) initNATS() {
	if app.config.NATSURL == "" {
		return
	}
	nc, err := nats.Connect(app.config.NATSURL, nats.Name(app.config.AppName))
	if err != nil {
		app.logger.Error(context.Background(), "nats connect failed", "error", err)
		return
	}
	app.natsConn = nc

	h := natsverify.NewVerifyHandler(app.userService, app.logger)
	if _, err := h.Subscribe(nc, app.config.NATSVerifySubject, app.config.AppName); err != nil {
		app.logger.Error(context.Background(), "nats subscribe failed", "subject", app.config.NATSVerifySubject, "error", err)
		return
	}
	app.logger.Info(context.Background(), "Listening for token verification", "subject", app.config.NATSVerifySubject)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	deps := httpapi.Deps{
		Users:   app.userService,
		Roles:   app.roleService,
		Films:   app.films,
		Genres:  app.genres,
		Persons: app.persons,
		Limiter: app.limiter,
	}
	if app.oauthService != nil {
		deps.OAuth = app.oauthService
	}

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, deps, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a server fails, then releases every
// backend connection.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.Close()
	app.logger.Info(context.Background(), "Stopped")
}

// Close releases backend connections in reverse order of acquisition.
func (app *App) Close() {
	if app.natsConn != nil {
		_ = app.natsConn.Drain()
		app.natsConn = nil
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
