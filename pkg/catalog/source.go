package catalog

import "github.com/agentstation/utc"

// ExternalSource is a registered data engine. Its ID is stamped on every
// object the source creates.
type ExternalSource struct {
	ID            string   `json:"id" yaml:"id"`
	QualifiedName string   `json:"qualified_name" yaml:"qualified_name"`
	DisplayName   string   `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	CreatedAt     utc.Time `json:"created_at" yaml:"created_at"`
}
