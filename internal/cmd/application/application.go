// Package application defines what CLI commands need from the running
// application.
//
// Commands accept this interface rather than the concrete App type, which
// keeps them testable with Mock:
//
//	repo := memory.New()
//	eng, _ := engine.New(repo)
//	mock := &application.Mock{
//	    EngineFunc:     func(context.Context) (*engine.Engine, error) { return eng, nil },
//	    RepositoryFunc: func(context.Context) (repository.Repository, error) { return repo, nil },
//	}
//	cmd := lookup.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Engine returns the reconciliation engine, opening the configured
	// repository on first use.
	Engine(ctx context.Context) (*engine.Engine, error)

	// Repository returns the repository the engine writes to.
	Repository(ctx context.Context) (repository.Repository, error)

	// User returns the identity every repository call is made as.
	User() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, etc).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
