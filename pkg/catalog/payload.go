package catalog

import (
	"strings"

	"github.com/agentstation/dataengine/pkg/errors"
)

// Payload is an externally-sourced description of one catalogued object.
// Kind selects the variant; ParentQualifiedName names the owning Container
// of a SchemaType or the owning SchemaType of a Field and is ignored for
// Containers. Fields is only meaningful for SchemaTypes and is reconciled as
// a cascade once the SchemaType itself exists.
type Payload struct {
	Kind                Kind       `json:"kind" yaml:"kind"`
	QualifiedName       string     `json:"qualified_name" yaml:"qualified_name"`
	DisplayName         string     `json:"display_name" yaml:"display_name"`
	Properties          Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	ParentQualifiedName string     `json:"parent,omitempty" yaml:"parent,omitempty"`
	Fields              []Payload  `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Validate checks the attributes every kind requires.
func (p Payload) Validate() error {
	if !p.Kind.Valid() {
		return errors.NewValidationError("kind", p.Kind, "unknown kind")
	}
	if strings.TrimSpace(p.QualifiedName) == "" {
		return errors.NewValidationError("qualifiedName", p.QualifiedName, "cannot be blank")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return errors.NewValidationError("displayName", p.DisplayName, "cannot be blank")
	}
	return nil
}

// Container describes a top-level data asset.
type Container struct {
	QualifiedName string     `json:"qualified_name" yaml:"qualified_name"`
	DisplayName   string     `json:"display_name" yaml:"display_name"`
	Properties    Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Payload converts the container into its tagged form.
func (c Container) Payload() Payload {
	return Payload{
		Kind:          KindContainer,
		QualifiedName: c.QualifiedName,
		DisplayName:   c.DisplayName,
		Properties:    c.Properties,
	}
}

// SchemaType describes the structure of the data held by a Container.
type SchemaType struct {
	QualifiedName          string     `json:"qualified_name" yaml:"qualified_name"`
	DisplayName            string     `json:"display_name" yaml:"display_name"`
	Properties             Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	ContainerQualifiedName string     `json:"container" yaml:"container"`
	Fields                 []Field    `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Payload converts the schema type and its fields into tagged form.
func (s SchemaType) Payload() Payload {
	var fields []Payload
	if len(s.Fields) > 0 {
		fields = make([]Payload, 0, len(s.Fields))
		for _, f := range s.Fields {
			fp := f.Payload()
			if fp.ParentQualifiedName == "" {
				fp.ParentQualifiedName = s.QualifiedName
			}
			fields = append(fields, fp)
		}
	}
	return Payload{
		Kind:                KindSchemaType,
		QualifiedName:       s.QualifiedName,
		DisplayName:         s.DisplayName,
		Properties:          s.Properties,
		ParentQualifiedName: s.ContainerQualifiedName,
		Fields:              fields,
	}
}

// Field is a single attribute of a SchemaType.
type Field struct {
	QualifiedName           string     `json:"qualified_name" yaml:"qualified_name"`
	DisplayName             string     `json:"display_name" yaml:"display_name"`
	Properties              Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	SchemaTypeQualifiedName string     `json:"schema_type,omitempty" yaml:"schema_type,omitempty"`
}

// Payload converts the field into its tagged form.
func (f Field) Payload() Payload {
	return Payload{
		Kind:                KindField,
		QualifiedName:       f.QualifiedName,
		DisplayName:         f.DisplayName,
		Properties:          f.Properties,
		ParentQualifiedName: f.SchemaTypeQualifiedName,
	}
}
