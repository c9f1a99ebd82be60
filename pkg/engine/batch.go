package engine

import (
	"context"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/logging"
)

// BatchResult collects the outcome of the items a batch applied.
type BatchResult struct {
	Items   []Result `json:"items" yaml:"items"`
	Created int      `json:"created" yaml:"created"`
	Updated int      `json:"updated" yaml:"updated"`
}

// Total is the number of objects written, cascaded children included.
func (b *BatchResult) Total() int {
	return b.Created + b.Updated
}

func (b *BatchResult) add(res Result) {
	b.Items = append(b.Items, res)
	b.count(res)
}

func (b *BatchResult) count(res Result) {
	switch res.Action {
	case ActionCreated:
		b.Created++
	case ActionUpdated:
		b.Updated++
	}
	for _, child := range res.Children {
		b.count(child)
	}
}

// Orchestrator applies a batch of payloads in the order given.
//
// The batch is not a transaction: the first failure stops the batch and
// everything applied before it stays applied. Since each item is an upsert,
// resubmitting the whole batch is safe.
type Orchestrator struct {
	r *reconciler
}

// UpsertMany reconciles payloads in caller order on behalf of the named
// source. Parents must come before their children; nothing is reordered.
// On failure the returned result holds the items applied so far and the
// error is a ResourceError naming the offending item.
func (o *Orchestrator) UpsertMany(ctx context.Context, user string, payloads []catalog.Payload, sourceQualifiedName string) (BatchResult, error) {
	var result BatchResult
	logger := logging.FromContext(ctx).With().
		Str("source", sourceQualifiedName).
		Int("items", len(payloads)).
		Logger()

	sourceID, err := o.r.resolver.Resolve(ctx, user, sourceQualifiedName)
	if err != nil {
		logger.Error().Err(err).Msg("Batch aborted, source not resolved")
		return result, errors.WrapResource("resolve", "source", sourceQualifiedName, err)
	}
	ctx = logging.WithUser(logging.WithSource(ctx, sourceQualifiedName), user)

	for i, p := range payloads {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := o.apply(ctx, user, p, sourceID)
		if err != nil {
			// A cascade may have written part of the item before failing.
			result.count(res)
			logger.Error().Err(err).
				Int("index", i).
				Str("kind", p.Kind.String()).
				Str("qualified_name", p.QualifiedName).
				Msg("Batch aborted")
			return result, errors.WrapResource("upsert", p.Kind.String(), p.QualifiedName, err)
		}
		result.add(res)
	}

	logger.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Batch applied")
	return result, nil
}

func (o *Orchestrator) apply(ctx context.Context, user string, p catalog.Payload, sourceID string) (Result, error) {
	if err := o.r.validate(p, false); err != nil {
		return Result{}, err
	}
	return o.r.apply(ctx, user, p, sourceID, "")
}

// UpsertContainers is UpsertMany for Containers.
func (o *Orchestrator) UpsertContainers(ctx context.Context, user string, containers []catalog.Container, sourceQualifiedName string) (BatchResult, error) {
	payloads := make([]catalog.Payload, 0, len(containers))
	for _, c := range containers {
		payloads = append(payloads, c.Payload())
	}
	return o.UpsertMany(ctx, user, payloads, sourceQualifiedName)
}

// UpsertSchemaTypes is UpsertMany for SchemaTypes, each cascading to its Fields.
func (o *Orchestrator) UpsertSchemaTypes(ctx context.Context, user string, schemas []catalog.SchemaType, sourceQualifiedName string) (BatchResult, error) {
	payloads := make([]catalog.Payload, 0, len(schemas))
	for _, s := range schemas {
		payloads = append(payloads, s.Payload())
	}
	return o.UpsertMany(ctx, user, payloads, sourceQualifiedName)
}

// UpsertFields is UpsertMany for Fields.
func (o *Orchestrator) UpsertFields(ctx context.Context, user string, fields []catalog.Field, sourceQualifiedName string) (BatchResult, error) {
	payloads := make([]catalog.Payload, 0, len(fields))
	for _, f := range fields {
		payloads = append(payloads, f.Payload())
	}
	return o.UpsertMany(ctx, user, payloads, sourceQualifiedName)
}
