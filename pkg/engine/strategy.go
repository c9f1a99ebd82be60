package engine

import (
	"fmt"
	"strings"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
)

// strategy holds what differs between kinds. The reconcile algorithm itself
// is shared.
type strategy struct {
	kind catalog.Kind

	// parentKind is empty for root kinds.
	parentKind   catalog.Kind
	relationship catalog.RelationshipKind

	// cascade is the kind of the children carried in Payload.Fields,
	// empty when the kind has none.
	cascade catalog.Kind

	required []string
}

func (s strategy) hasParent() bool {
	return s.parentKind != ""
}

// strategies returns the per-kind table with any required properties applied.
func strategies(required map[catalog.Kind][]string) map[catalog.Kind]strategy {
	table := map[catalog.Kind]strategy{
		catalog.KindContainer: {
			kind: catalog.KindContainer,
		},
		catalog.KindSchemaType: {
			kind:         catalog.KindSchemaType,
			parentKind:   catalog.KindContainer,
			relationship: catalog.RelationshipContains,
			cascade:      catalog.KindField,
		},
		catalog.KindField: {
			kind:         catalog.KindField,
			parentKind:   catalog.KindSchemaType,
			relationship: catalog.RelationshipHasField,
		},
	}
	for kind, keys := range required {
		s := table[kind]
		s.required = append([]string(nil), keys...)
		table[kind] = s
	}
	return table
}

// validate checks p and, recursively, its cascaded children. Nothing is
// written for a payload tree that fails here.
//
// cascaded is true when p arrives through its parent's Fields list, in which
// case the parent is already bound and p.ParentQualifiedName may be empty.
func (r *reconciler) validate(p catalog.Payload, cascaded bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s := r.strategies[p.Kind]

	if s.hasParent() && !cascaded && strings.TrimSpace(p.ParentQualifiedName) == "" {
		return errors.NewValidationError("parent", p.ParentQualifiedName,
			fmt.Sprintf("%s requires a parent %s", s.kind, s.parentKind))
	}
	for _, key := range s.required {
		if _, ok := p.Properties[key]; !ok {
			return errors.NewValidationError("properties."+key, nil, "required property is missing")
		}
	}

	if len(p.Fields) > 0 && s.cascade == "" {
		return errors.NewValidationError("fields", len(p.Fields),
			fmt.Sprintf("%s does not carry child objects", s.kind))
	}
	for _, child := range p.Fields {
		if child.Kind != s.cascade {
			return errors.NewValidationError("fields.kind", child.Kind,
				fmt.Sprintf("%s children must be %s", s.kind, s.cascade))
		}
		if child.ParentQualifiedName != "" && child.ParentQualifiedName != p.QualifiedName {
			return errors.NewValidationError("fields.parent", child.ParentQualifiedName,
				fmt.Sprintf("%s is listed under %s", child.QualifiedName, p.QualifiedName))
		}
		if err := r.validate(child, true); err != nil {
			return err
		}
	}
	return nil
}
