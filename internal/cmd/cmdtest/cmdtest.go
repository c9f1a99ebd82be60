// Package cmdtest runs dataengine commands against an in-memory catalog.
package cmdtest

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/internal/cmd/application"
	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/engine"
	"github.com/agentstation/dataengine/pkg/repository/memory"
)

// User is the identity commands run as.
const User = "test"

// Env bundles a memory repository, an engine over it and a Mock serving both.
type Env struct {
	Repo   *memory.Repository
	Engine *engine.Engine
	App    *application.Mock
}

// New returns an Env with the warehouse source registered.
func New(t *testing.T) *Env {
	t.Helper()
	repo := memory.New()
	eng, err := engine.New(repo)
	require.NoError(t, err)

	_, err = eng.Registrar().Register(context.Background(), User, catalog.ExternalSource{QualifiedName: "warehouse"})
	require.NoError(t, err)

	return &Env{Repo: repo, Engine: eng, App: application.NewMock(repo, eng)}
}

// Seed reconciles db1 with the orders schema type and its id field.
func (e *Env) Seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := e.Engine.Containers().Reconcile(ctx, User, catalog.Container{QualifiedName: "db1", DisplayName: "Sales DB"}, "warehouse")
	require.NoError(t, err)
	_, err = e.Engine.SchemaTypes().Reconcile(ctx, User, catalog.SchemaType{
		QualifiedName:          "db1.orders",
		DisplayName:            "Orders",
		ContainerQualifiedName: "db1",
		Fields:                 []catalog.Field{{QualifiedName: "db1.orders.id", DisplayName: "id"}},
	}, "warehouse")
	require.NoError(t, err)
}

// Run executes cmd with args and returns what it wrote to stdout.
func Run(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
