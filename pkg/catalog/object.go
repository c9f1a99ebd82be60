package catalog

import (
	"maps"

	"github.com/agentstation/utc"
)

// Properties holds kind-specific attributes. The engine passes them through untouched.
type Properties map[string]any

// Clone returns a shallow copy of the properties.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Object is a catalogued object as stored by a repository.
//
// ID, OwningSourceID and ParentID are fixed when the object is created.
// Updates only ever change DisplayName, Properties and UpdatedAt.
type Object struct {
	ID             string     `json:"id" yaml:"id"`
	Kind           Kind       `json:"kind" yaml:"kind"`
	QualifiedName  string     `json:"qualified_name" yaml:"qualified_name"`
	DisplayName    string     `json:"display_name" yaml:"display_name"`
	Properties     Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	OwningSourceID string     `json:"owning_source_id" yaml:"owning_source_id"`
	ParentID       string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt      utc.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt      utc.Time   `json:"updated_at" yaml:"updated_at"`
	DeletedAt      *utc.Time  `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// Deleted reports whether the object carries a soft-delete tombstone.
func (o *Object) Deleted() bool {
	return o.DeletedAt != nil
}

// Clone returns a copy that shares no mutable state with o.
func (o Object) Clone() Object {
	o.Properties = o.Properties.Clone()
	if o.DeletedAt != nil {
		deletedAt := *o.DeletedAt
		o.DeletedAt = &deletedAt
	}
	return o
}
