package catalog

import (
	"fmt"
	"slices"

	"github.com/agentstation/dataengine/pkg/errors"
)

// Kind identifies the variant of a catalogued object.
type Kind string

const (
	// KindContainer is a top-level data asset such as a topic, table store or file folder.
	KindContainer Kind = "Container"

	// KindSchemaType describes the structure of data held in a Container.
	KindSchemaType Kind = "SchemaType"

	// KindField is a single attribute of a SchemaType.
	KindField Kind = "Field"
)

// Kinds returns all catalogued object kinds, parents before children.
func Kinds() []Kind {
	return []Kind{KindContainer, KindSchemaType, KindField}
}

// String returns the string representation of a kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds(), k)
}

// ParseKind converts a case-sensitive kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.NewValidationError("kind", s, fmt.Sprintf("must be one of %v", Kinds()))
	}
	return k, nil
}
