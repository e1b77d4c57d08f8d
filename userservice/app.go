package userservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/innowise/user-service/internal/cachestore"
	"github.com/innowise/user-service/internal/middleware"
)

// App is the main application. It wires the repository, the cache and the
// services together and is responsible for starting and stopping them.
type App struct {
	srv    *http.Server
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	config *Config
	db     *sql.DB
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "user-service"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	// Choose repository backend: default to pg for runtime; allow mem only
	// when explicitly enabled for tests.
	var repository *Repository
	switch a.config.RepoBackend {
	case "pg":
		if a.config.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", a.config.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(a.config.DBMaxIdleConns)
		db.SetMaxOpenConns(a.config.DBMaxOpenConns)
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		a.db = db
		repository = NewPGRepository(db)
	case "mem":
		if !a.config.AllowMemBackend {
			return fmt.Errorf("mem repository is disabled at runtime; set ALLOW_MEM_BACKEND_FOR_TESTS=true only in tests")
		}
		repository = NewRepository()
	default:
		return fmt.Errorf("unsupported REPO_BACKEND=%s", a.config.RepoBackend)
	}

	cache, err := cachestore.New(cachestore.Config{
		Capacity:           a.config.CacheCapacity,
		NumShards:          a.config.CacheShards,
		TTL:                a.config.CacheTTL,
		EvictionPercentage: a.config.CacheEvictionPercentage,
	})
	if err != nil {
		return fmt.Errorf("building cache: %w", err)
	}

	users := NewUserService(repository, cache, a.logger)
	cards := NewCardService(repository, cache, a.logger)

	api := NewAPI(users, cards)
	api.AppendRoutes(router)

	// Health endpoints
	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing db", "err", err)
		}
	}

	a.wg.Wait()

	a.logger.Info("app stopped")
}
