package catalog

// RelationshipKind names a parent/child link between two catalogued objects.
type RelationshipKind string

const (
	// RelationshipContains links a Container to one of its SchemaTypes.
	RelationshipContains RelationshipKind = "CONTAINS"

	// RelationshipHasField links a SchemaType to one of its Fields.
	RelationshipHasField RelationshipKind = "HAS_FIELD"
)

// String returns the string representation of a relationship kind.
func (k RelationshipKind) String() string {
	return string(k)
}

// Relationship is created once, when the child object is created, and is never mutated.
type Relationship struct {
	Kind   RelationshipKind `json:"kind" yaml:"kind"`
	FromID string           `json:"from_id" yaml:"from_id"`
	ToID   string           `json:"to_id" yaml:"to_id"`
}
