package engine

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Engine wires the reconciliation components to one repository.
type Engine struct {
	resolver  *Resolver
	lookup    *Lookup
	rec       *reconciler
	batch     *Orchestrator
	remover   *Remover
	registrar *Registrar
}

// New creates an Engine over repo.
func New(repo repository.Repository, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, errors.NewValidationError("repository", nil, "cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(repo, o.sourceCache)
	lookup := NewLookup(repo)
	rec := &reconciler{
		repo:       repo,
		resolver:   resolver,
		lookup:     lookup,
		strategies: strategies(o.required),
	}

	return &Engine{
		resolver: resolver,
		lookup:   lookup,
		rec:      rec,
		batch:    &Orchestrator{r: rec},
		remover: &Remover{
			repo:      repo,
			resolver:  resolver,
			lookup:    lookup,
			semantics: o.semantics,
		},
		registrar: &Registrar{registry: repo, resolver: resolver},
	}, nil
}

// Reconcile creates or updates a single object of any kind.
func (e *Engine) Reconcile(ctx context.Context, user string, p catalog.Payload, sourceQualifiedName string) (Result, error) {
	return e.rec.reconcile(ctx, user, p, sourceQualifiedName)
}

// Resolver returns the external source resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Lookup returns the entity lookup.
func (e *Engine) Lookup() *Lookup { return e.lookup }

// Containers returns the Container reconciler.
func (e *Engine) Containers() *ContainerReconciler { return &ContainerReconciler{r: e.rec} }

// SchemaTypes returns the SchemaType reconciler.
func (e *Engine) SchemaTypes() *SchemaTypeReconciler { return &SchemaTypeReconciler{r: e.rec} }

// Fields returns the Field reconciler.
func (e *Engine) Fields() *FieldReconciler { return &FieldReconciler{r: e.rec} }

// Batch returns the batch orchestrator.
func (e *Engine) Batch() *Orchestrator { return e.batch }

// Remover returns the removal validator.
func (e *Engine) Remover() *Remover { return e.remover }

// Registrar returns the source registrar.
func (e *Engine) Registrar() *Registrar { return e.registrar }
