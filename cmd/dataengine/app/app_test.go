package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
	"github.com/agentstation/dataengine/pkg/repository/memory"
)

func newTestApp(t *testing.T, config *Config) *App {
	t.Helper()
	logger := logging.NewNopLogger()
	a, err := New("1.0.0", "abc123", "2026-01-01", "test", WithConfig(config), WithLogger(logger))
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	isolate(t)
	a, err := New("1.0.0", "abc123", "2026-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", a.Version())
	assert.Equal(t, "abc123", a.Commit())
	assert.Equal(t, "2026-01-01", a.Date())
	assert.Equal(t, "test", a.BuiltBy())
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Config())
	assert.Equal(t, constants.DefaultUser, a.User())
}

func TestEngineSingleton(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, &Config{Driver: constants.DriverMemory, Path: filepath.Join(dir, "catalog.yaml")})

	const goroutines = 20
	engines := make([]*engine.Engine, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng, err := a.Engine(context.Background())
			assert.NoError(t, err)
			engines[i] = eng
		}(i)
	}
	wg.Wait()

	for _, eng := range engines {
		assert.Same(t, engines[0], eng)
	}
}

func TestUnknownDriver(t *testing.T) {
	a := newTestApp(t, &Config{Driver: "postgres"})

	_, err := a.Repository(context.Background())
	assert.True(t, errors.IsValidationError(err))
}

func TestMemorySnapshotSurvivesShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	config := &Config{Driver: constants.DriverMemory, Path: path, User: "ingest-bot"}
	ctx := context.Background()

	first := newTestApp(t, config)
	eng, err := first.Engine(ctx)
	require.NoError(t, err)
	_, err = eng.Registrar().Register(ctx, first.User(), catalog.ExternalSource{QualifiedName: "warehouse"})
	require.NoError(t, err)
	_, err = eng.Containers().Reconcile(ctx, first.User(), catalog.Container{QualifiedName: "db1", DisplayName: "Sales DB"}, "warehouse")
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(ctx))

	_, err = os.Stat(path)
	require.NoError(t, err)

	second := newTestApp(t, config)
	eng, err = second.Engine(ctx)
	require.NoError(t, err)
	_, found, err := eng.Lookup().Find(ctx, second.User(), "db1", catalog.KindContainer)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSQLiteDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	a := newTestApp(t, &Config{Driver: constants.DriverSQLite, Path: path, User: "ingest-bot"})
	ctx := context.Background()

	eng, err := a.Engine(ctx)
	require.NoError(t, err)
	_, err = eng.Registrar().Register(ctx, a.User(), catalog.ExternalSource{QualifiedName: "warehouse"})
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, a.Shutdown(ctx), "second shutdown is a no-op")
}

func TestAllowedUsers(t *testing.T) {
	a := newTestApp(t, &Config{
		Driver:       constants.DriverMemory,
		Path:         filepath.Join(t.TempDir(), "catalog.yaml"),
		User:         "intruder",
		AllowedUsers: []string{"ingest-bot"},
	})
	ctx := context.Background()

	eng, err := a.Engine(ctx)
	require.NoError(t, err)
	_, err = eng.Registrar().Register(ctx, a.User(), catalog.ExternalSource{QualifiedName: "warehouse"})
	assert.True(t, errors.IsUnauthorized(err))
}

func TestWithRepository(t *testing.T) {
	repo := memory.New()
	a := newTestApp(t, &Config{})
	require.NoError(t, WithRepository(repo)(a))

	got, err := a.Repository(context.Background())
	require.NoError(t, err)
	assert.Same(t, repo, got)
	assert.NoError(t, a.Shutdown(context.Background()))

	assert.Error(t, WithRepository(nil)(a))
}

func TestExecuteIngestAndLookup(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(`source:
  qualified_name: warehouse
  register: true
containers:
  - qualified_name: db1
    display_name: Sales DB
schema_types:
  - qualified_name: db1.orders
    display_name: Orders
    container: db1
    fields:
      - qualified_name: db1.orders.id
        display_name: id
`), 0o600))

	a := newTestApp(t, &Config{Driver: constants.DriverMemory, Path: filepath.Join(dir, "catalog.yaml")})
	ctx := context.Background()

	require.NoError(t, a.Execute(ctx, []string{"ingest", doc, "--format", "json"}))

	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"lookup", "Field", "db1.orders.id", "-o", "json"})
	require.NoError(t, root.ExecuteContext(ctx))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "db1.orders.id", got["qualified_name"])
}

func TestExecuteRejectsUnknownFormat(t *testing.T) {
	a := newTestApp(t, &Config{Driver: constants.DriverMemory, Path: filepath.Join(t.TempDir(), "catalog.yaml")})

	err := a.Execute(context.Background(), []string{"source", "list", "-o", "xml"})
	assert.True(t, errors.IsValidationError(err))
}
