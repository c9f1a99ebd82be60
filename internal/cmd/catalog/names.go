// Package catalog provides common catalog reads for CLI commands.
package catalog

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
)

// SourceNames maps every registered source id to its qualified name.
func SourceNames(ctx context.Context, repo repository.Repository, user string) (map[string]string, error) {
	sources, err := repo.ListSources(ctx, user)
	if err != nil {
		return nil, errors.WrapResource("list", "sources", "", err)
	}
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.QualifiedName
	}
	return names, nil
}

// Names maps source ids, obj's parent and both ends of rels to qualified
// names. Ids that no longer resolve are left out.
func Names(ctx context.Context, repo repository.Repository, user string, obj catalog.Object, rels []catalog.Relationship) (map[string]string, error) {
	names, err := SourceNames(ctx, repo, user)
	if err != nil {
		return nil, err
	}

	ids := []string{obj.ParentID}
	for _, rel := range rels {
		ids = append(ids, rel.FromID, rel.ToID)
	}
	for _, id := range ids {
		if id == "" || id == obj.ID {
			continue
		}
		if _, ok := names[id]; ok {
			continue
		}
		other, err := repo.Get(ctx, user, id, repository.IncludeDeleted())
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		names[id] = other.QualifiedName
	}
	return names, nil
}
