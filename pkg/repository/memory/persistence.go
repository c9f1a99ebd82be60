package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/errors"
)

// snapshot is the on-disk form of a repository.
type snapshot struct {
	Sources       []catalog.ExternalSource `yaml:"sources"`
	Objects       []catalog.Object         `yaml:"objects"`
	Relationships []catalog.Relationship   `yaml:"relationships"`
}

// Save writes the full repository state, tombstones included, to path as YAML.
// The file is written to a temporary sibling first and renamed into place.
func (r *Repository) Save(path string) error {
	r.mu.RLock()
	snap := snapshot{
		Sources:       make([]catalog.ExternalSource, 0, len(r.sources)),
		Objects:       make([]catalog.Object, 0, len(r.objects)),
		Relationships: make([]catalog.Relationship, 0, len(r.relationships)),
	}
	for _, s := range r.sources {
		snap.Sources = append(snap.Sources, s)
	}
	for _, o := range r.objects {
		snap.Objects = append(snap.Objects, o.Clone())
	}
	for rel := range r.relationships {
		snap.Relationships = append(snap.Relationships, rel)
	}
	r.mu.RUnlock()

	slices.SortFunc(snap.Sources, func(a, b catalog.ExternalSource) int {
		return strings.Compare(a.QualifiedName, b.QualifiedName)
	})
	slices.SortFunc(snap.Objects, func(a, b catalog.Object) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(snap.Relationships, compareRelationships)

	data, err := yaml.MarshalWithOptions(snap, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// Load replaces the repository state with the snapshot stored at path.
// A missing file leaves the repository empty and is not an error.
func (r *Repository) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIO("read", path, err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	sources := make(map[string]catalog.ExternalSource, len(snap.Sources))
	sourceByName := make(map[string]string, len(snap.Sources))
	for _, s := range snap.Sources {
		sources[s.ID] = s
		sourceByName[s.QualifiedName] = s.ID
	}

	objects := make(map[string]*catalog.Object, len(snap.Objects))
	live := make(map[catalog.Kind]map[string]string)
	for i := range snap.Objects {
		obj := snap.Objects[i]
		objects[obj.ID] = &obj
		if obj.Deleted() {
			continue
		}
		if live[obj.Kind] == nil {
			live[obj.Kind] = make(map[string]string)
		}
		if existing, dup := live[obj.Kind][obj.QualifiedName]; dup {
			return errors.NewParseError("yaml", path,
				fmt.Sprintf("duplicate live %s %s (%s, %s)", obj.Kind, obj.QualifiedName, existing, obj.ID), nil)
		}
		live[obj.Kind][obj.QualifiedName] = obj.ID
	}

	relationships := make(map[catalog.Relationship]struct{}, len(snap.Relationships))
	for _, rel := range snap.Relationships {
		relationships[rel] = struct{}{}
	}

	// Swap only once the snapshot is known to be consistent.
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = sources
	r.sourceByName = sourceByName
	r.objects = objects
	r.live = live
	r.relationships = relationships
	return nil
}
