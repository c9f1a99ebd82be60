package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
	"github.com/agentstation/dataengine/pkg/repository/repotest"
)

func openTemp(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Repository {
		return openTemp(t)
	})
}

func TestReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	repo, err := Open(ctx, path)
	require.NoError(t, err)
	src := repotest.MustSource(t, repo, "warehouse")
	id := repotest.MustCreate(t, repo, catalog.Object{
		Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1",
		Properties: catalog.Properties{"replicas": float64(3)}, OwningSourceID: src,
	})
	require.NoError(t, repo.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	obj, found, err := reopened.FindByQualifiedName(ctx, repotest.User, "db1", catalog.KindContainer)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, obj.ID)
	assert.Equal(t, float64(3), obj.Properties["replicas"])
}

func TestAuthorizer(t *testing.T) {
	repo := openTemp(t, WithAuthorizer(repository.AllowUsers("alice")))

	_, err := repo.RegisterSource(context.Background(), "bob", catalog.ExternalSource{QualifiedName: "warehouse"})
	assert.True(t, errors.IsUnauthorized(err))
}

func TestLatestTombstoneWins(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	src := repotest.MustSource(t, repo, "warehouse")

	first := repotest.MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})
	require.NoError(t, repo.Remove(ctx, repotest.User, first, catalog.DeleteSoft))
	second := repotest.MustCreate(t, repo, catalog.Object{Kind: catalog.KindContainer, QualifiedName: "db1", DisplayName: "db1", OwningSourceID: src})

	obj, found, err := repo.FindByQualifiedName(ctx, repotest.User, "db1", catalog.KindContainer, repository.IncludeDeleted())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second, obj.ID, "live object is preferred over tombstones")
}

func TestSubSecondTombstoneOrder(t *testing.T) {
	repotest.RunTombstoneOrder(t, func(t *testing.T, clock func() utc.Time) repository.Repository {
		return openTemp(t, WithClock(clock))
	})
}
