package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	EngineFunc       func(ctx context.Context) (*engine.Engine, error)
	RepositoryFunc   func(ctx context.Context) (repository.Repository, error)
	UserFunc         func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Engine returns an engine using the mock function or nil.
func (m *Mock) Engine(ctx context.Context) (*engine.Engine, error) {
	if m.EngineFunc != nil {
		return m.EngineFunc(ctx)
	}
	return nil, nil
}

// Repository returns a repository using the mock function or nil.
func (m *Mock) Repository(ctx context.Context) (repository.Repository, error) {
	if m.RepositoryFunc != nil {
		return m.RepositoryFunc(ctx)
	}
	return nil, nil
}

// User returns the user from the mock function or "test".
func (m *Mock) User() string {
	if m.UserFunc != nil {
		return m.UserFunc()
	}
	return "test"
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns the version using the mock function or "test".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "test"
}

// Commit returns the commit using the mock function or "test".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "test"
}

// Date returns the date using the mock function or "test".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "test"
}

// BuiltBy returns the builder using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// NewMock returns a Mock serving repo and eng with JSON output.
func NewMock(repo repository.Repository, eng *engine.Engine) *Mock {
	return &Mock{
		EngineFunc:     func(context.Context) (*engine.Engine, error) { return eng, nil },
		RepositoryFunc: func(context.Context) (repository.Repository, error) { return repo, nil },
	}
}
