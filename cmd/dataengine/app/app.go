// Package app provides the application context and dependency management
// for the dataengine CLI. It owns configuration, logging and the lifecycle
// of the repository the engine writes to.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/dataengine/internal/cmd/application"
	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository"
	"github.com/agentstation/dataengine/pkg/repository/memory"
	"github.com/agentstation/dataengine/pkg/repository/sqlite"
)

// App represents the dataengine application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Repository and engine are opened lazily on first use.
	mu       sync.RWMutex
	repo     repository.Repository
	engine   *engine.Engine
	snapshot *memory.Repository
	db       *sqlite.Repository
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// User returns the identity repository calls are made as.
func (a *App) User() string {
	if a.config.User == "" {
		return constants.DefaultUser
	}
	return a.config.User
}

// OutputFormat returns the requested output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Repository returns the configured repository, opening it if needed.
func (a *App) Repository(ctx context.Context) (repository.Repository, error) {
	a.mu.RLock()
	if a.repo != nil {
		repo := a.repo
		a.mu.RUnlock()
		return repo, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.open(ctx); err != nil {
		return nil, err
	}
	return a.repo, nil
}

// Engine returns the reconciliation engine bound to the configured
// repository. It is created once and shared.
func (a *App) Engine(ctx context.Context) (*engine.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		eng := a.engine
		a.mu.RUnlock()
		return eng, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.engine != nil {
		return a.engine, nil
	}
	if err := a.open(ctx); err != nil {
		return nil, err
	}

	eng, err := engine.New(a.repo, engine.WithSourceCache(a.config.SourceCache))
	if err != nil {
		return nil, errors.WrapResource("create", "engine", "", err)
	}
	a.engine = eng
	return eng, nil
}

// open creates the repository selected by the configuration. The caller
// holds the write lock.
func (a *App) open(ctx context.Context) error {
	if a.repo != nil {
		return nil
	}

	var authorizer repository.Authorizer = repository.AllowAll
	if len(a.config.AllowedUsers) > 0 {
		authorizer = repository.AllowUsers(a.config.AllowedUsers...)
	}

	logger := a.logger.With().Str("driver", a.config.Driver).Str("path", a.config.RepositoryPath()).Logger()

	switch a.config.Driver {
	case constants.DriverMemory, "":
		repo := memory.New(memory.WithAuthorizer(authorizer))
		if err := repo.Load(a.config.RepositoryPath()); err != nil {
			return err
		}
		a.snapshot = repo
		a.repo = repo
	case constants.DriverSQLite:
		db, err := sqlite.Open(logging.WithLogger(ctx, &logger), a.config.RepositoryPath(), sqlite.WithAuthorizer(authorizer))
		if err != nil {
			return err
		}
		a.db = db
		a.repo = db
	default:
		return errors.NewConfigError("repository", "unknown driver",
			errors.NewValidationError("repository.driver", a.config.Driver,
				"must be "+constants.DriverMemory+" or "+constants.DriverSQLite))
	}

	logger.Debug().Msg("Repository opened")
	return nil
}

// Shutdown persists the in-memory snapshot or closes the database.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.snapshot != nil:
		if err := a.snapshot.Save(a.config.RepositoryPath()); err != nil {
			a.logger.Error().Err(err).Msg("Failed to save repository snapshot")
			return err
		}
	case a.db != nil:
		if err := a.db.Close(); err != nil {
			return errors.WrapIO("close", a.config.RepositoryPath(), err)
		}
		a.db = nil
	}
	return nil
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRepository sets the repository directly, bypassing the driver
// configuration. Nothing is persisted on shutdown.
func WithRepository(repo repository.Repository) Option {
	return func(a *App) error {
		if repo == nil {
			return errors.NewValidationError("repository", nil, "cannot be nil")
		}
		a.repo = repo
		return nil
	}
}
