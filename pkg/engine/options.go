package engine

import (
	"strings"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
)

// options configures an Engine.
type options struct {
	sourceCache bool
	semantics   map[catalog.Kind]map[catalog.DeleteSemantic]bool
	required    map[catalog.Kind][]string
}

func defaultOptions() *options {
	o := &options{
		semantics: make(map[catalog.Kind]map[catalog.DeleteSemantic]bool),
		required:  make(map[catalog.Kind][]string),
	}
	for _, k := range catalog.Kinds() {
		o.semantics[k] = map[catalog.DeleteSemantic]bool{
			catalog.DeleteSoft: true,
			catalog.DeleteHard: true,
		}
	}
	return o
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSourceCache remembers resolved source ids for the lifetime of the
// engine. Sources are never removed, so a cached id cannot go stale.
func WithSourceCache(enabled bool) Option {
	return func(o *options) error {
		o.sourceCache = enabled
		return nil
	}
}

// WithDeleteSemantics restricts the delete semantics accepted for kind.
// Both soft and hard are accepted for every kind by default.
func WithDeleteSemantics(kind catalog.Kind, semantics ...catalog.DeleteSemantic) Option {
	return func(o *options) error {
		if !kind.Valid() {
			return errors.NewValidationError("kind", kind, "unknown kind")
		}
		allowed := make(map[catalog.DeleteSemantic]bool, len(semantics))
		for _, s := range semantics {
			if !s.Valid() {
				return errors.NewValidationError("semantic", s, "unknown delete semantic")
			}
			allowed[s] = true
		}
		o.semantics[kind] = allowed
		return nil
	}
}

// WithRequiredProperties makes the named property keys mandatory on every
// payload of kind.
func WithRequiredProperties(kind catalog.Kind, keys ...string) Option {
	return func(o *options) error {
		if !kind.Valid() {
			return errors.NewValidationError("kind", kind, "unknown kind")
		}
		for _, k := range keys {
			if strings.TrimSpace(k) == "" {
				return errors.NewValidationError("properties", keys, "property key cannot be blank")
			}
		}
		o.required[kind] = append(o.required[kind], keys...)
		return nil
	}
}
