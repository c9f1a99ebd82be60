// Package sqlite provides a durable repository backed by SQLite.
//
// Uniqueness of (kind, qualified name) among live objects is enforced by a
// partial unique index, so two concurrent creates of the same object cannot
// both succeed: the loser receives a ConflictError, which the reconciler
// turns into an update.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/agentstation/dataengine/pkg/catalog"
	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/errors"
	"github.com/agentstation/dataengine/pkg/repository"
)

// Compile-time contract assertion.
var _ repository.Repository = (*Repository)(nil)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sources (
	id             TEXT PRIMARY KEY,
	qualified_name TEXT NOT NULL UNIQUE,
	display_name   TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	qualified_name   TEXT NOT NULL,
	display_name     TEXT NOT NULL,
	properties       TEXT,
	owning_source_id TEXT NOT NULL REFERENCES sources(id),
	parent_id        TEXT,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	deleted_at       TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS objects_live_name
	ON objects(kind, qualified_name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS relationships (
	kind    TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_id   TEXT NOT NULL,
	PRIMARY KEY (kind, from_id, to_id)
);

CREATE INDEX IF NOT EXISTS relationships_to ON relationships(to_id);
`

const objectColumns = `id, kind, qualified_name, display_name, properties, owning_source_id,
	COALESCE(parent_id, ''), created_at, updated_at, deleted_at`

// Repository is a SQLite implementation of repository.Repository.
type Repository struct {
	db        *sql.DB
	path      string
	authorize repository.Authorizer
	newID     func() string
	now       func() utc.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithAuthorizer installs the check run before every operation.
func WithAuthorizer(fn repository.Authorizer) Option {
	return func(r *Repository) {
		if fn != nil {
			r.authorize = fn
		}
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(fn func() utc.Time) Option {
	return func(r *Repository) {
		if fn != nil {
			r.now = fn
		}
	}
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Repository, error) {
	if path == "" {
		path = constants.DefaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		path, constants.SQLiteBusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serialises writers; SQLite allows one at a time anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	r := &Repository{
		db:        db,
		path:      path,
		authorize: repository.AllowAll,
		newID:     uuid.NewString,
		now:       utc.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// ResolveSource implements repository.SourceRegistry.
func (r *Repository) ResolveSource(ctx context.Context, user, qualifiedName string) (string, error) {
	if err := r.authorize(user, "resolve source"); err != nil {
		return "", err
	}

	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM sources WHERE qualified_name = ?`, qualifiedName).Scan(&id)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFoundError("source", qualifiedName)
	}
	if err != nil {
		return "", fmt.Errorf("resolve source %s: %w", qualifiedName, err)
	}
	return id, nil
}

// RegisterSource implements repository.SourceRegistry.
func (r *Repository) RegisterSource(ctx context.Context, user string, source catalog.ExternalSource) (string, error) {
	if err := r.authorize(user, "register source"); err != nil {
		return "", err
	}
	if strings.TrimSpace(source.QualifiedName) == "" {
		return "", errors.NewValidationError("qualifiedName", source.QualifiedName, "cannot be blank")
	}

	id := r.newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (id, qualified_name, display_name, created_at) VALUES (?, ?, ?, ?)`,
		id, source.QualifiedName, source.DisplayName, formatTime(r.now()))
	if isUniqueViolation(err) {
		return "", errors.NewConflictError("source", source.QualifiedName)
	}
	if err != nil {
		return "", fmt.Errorf("register source %s: %w", source.QualifiedName, err)
	}
	return id, nil
}

// ListSources implements repository.SourceRegistry.
func (r *Repository) ListSources(ctx context.Context, user string) ([]catalog.ExternalSource, error) {
	if err := r.authorize(user, "list sources"); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, qualified_name, display_name, created_at FROM sources ORDER BY qualified_name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var result []catalog.ExternalSource
	for rows.Next() {
		var (
			src       catalog.ExternalSource
			createdAt string
		)
		if err := rows.Scan(&src.ID, &src.QualifiedName, &src.DisplayName, &createdAt); err != nil {
			return nil, fmt.Errorf("list sources: %w", err)
		}
		if src.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, src)
	}
	return result, rows.Err()
}

// FindByQualifiedName implements repository.Finder.
func (r *Repository) FindByQualifiedName(ctx context.Context, user, qualifiedName string, kind catalog.Kind, opts ...repository.FindOption) (catalog.Object, bool, error) {
	if err := r.authorize(user, "find"); err != nil {
		return catalog.Object{}, false, err
	}
	options := repository.ApplyFindOptions(opts...)

	query := `SELECT ` + objectColumns + ` FROM objects
		WHERE kind = ? AND qualified_name = ? AND deleted_at IS NULL`
	if options.IncludeDeleted {
		// Live object first, otherwise the most recent tombstone.
		query = `SELECT ` + objectColumns + ` FROM objects
			WHERE kind = ? AND qualified_name = ?
			ORDER BY deleted_at IS NULL DESC, deleted_at DESC LIMIT 1`
	}

	obj, err := scanObject(r.db.QueryRowContext(ctx, query, string(kind), qualifiedName))
	if err == sql.ErrNoRows {
		return catalog.Object{}, false, nil
	}
	if err != nil {
		return catalog.Object{}, false, fmt.Errorf("find %s %s: %w", kind, qualifiedName, err)
	}
	return obj, true, nil
}

// Get implements repository.Finder.
func (r *Repository) Get(ctx context.Context, user, id string, opts ...repository.FindOption) (catalog.Object, error) {
	if err := r.authorize(user, "get"); err != nil {
		return catalog.Object{}, err
	}
	options := repository.ApplyFindOptions(opts...)

	obj, err := scanObject(r.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = ?`, id))
	if err == sql.ErrNoRows || (err == nil && obj.Deleted() && !options.IncludeDeleted) {
		return catalog.Object{}, errors.NewNotFoundError("object", id)
	}
	if err != nil {
		return catalog.Object{}, fmt.Errorf("get object %s: %w", id, err)
	}
	return obj, nil
}

// List implements repository.Finder.
func (r *Repository) List(ctx context.Context, user string, kind catalog.Kind, opts ...repository.FindOption) ([]catalog.Object, error) {
	if err := r.authorize(user, "list"); err != nil {
		return nil, err
	}
	options := repository.ApplyFindOptions(opts...)

	query := `SELECT ` + objectColumns + ` FROM objects WHERE kind = ?`
	if !options.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY qualified_name, id`

	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var result []catalog.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		result = append(result, obj)
	}
	return result, rows.Err()
}

// Relationships implements repository.Finder.
func (r *Repository) Relationships(ctx context.Context, user, id string) ([]catalog.Relationship, error) {
	if err := r.authorize(user, "list relationships"); err != nil {
		return nil, err
	}
	if err := r.exists(ctx, r.db, id, true); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, from_id, to_id FROM relationships WHERE from_id = ? OR to_id = ? ORDER BY kind, from_id, to_id`,
		id, id)
	if err != nil {
		return nil, fmt.Errorf("relationships of %s: %w", id, err)
	}
	defer rows.Close()

	var result []catalog.Relationship
	for rows.Next() {
		var rel catalog.Relationship
		var kind string
		if err := rows.Scan(&kind, &rel.FromID, &rel.ToID); err != nil {
			return nil, fmt.Errorf("relationships of %s: %w", id, err)
		}
		rel.Kind = catalog.RelationshipKind(kind)
		result = append(result, rel)
	}
	return result, rows.Err()
}

// Create implements repository.Writer.
func (r *Repository) Create(ctx context.Context, user string, obj catalog.Object) (string, error) {
	if err := r.authorize(user, "create"); err != nil {
		return "", err
	}
	if !obj.Kind.Valid() {
		return "", errors.NewValidationError("kind", obj.Kind, "unknown kind")
	}

	props, err := encodeProperties(obj.Properties)
	if err != nil {
		return "", err
	}

	id := r.newID()
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM sources WHERE id = ?`, obj.OwningSourceID).Scan(&one)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError("source", obj.OwningSourceID)
		}
		if err != nil {
			return err
		}
		if obj.ParentID != "" {
			if err := r.exists(ctx, tx, obj.ParentID, false); err != nil {
				return errors.NewNotFoundError("parent", obj.ParentID)
			}
		}

		now := formatTime(r.now())
		var parent any
		if obj.ParentID != "" {
			parent = obj.ParentID
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO objects
			(id, kind, qualified_name, display_name, properties, owning_source_id, parent_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(obj.Kind), obj.QualifiedName, obj.DisplayName, props, obj.OwningSourceID, parent, now, now)
		if isUniqueViolation(err) {
			return errors.NewConflictError(obj.Kind.String(), obj.QualifiedName)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update implements repository.Writer.
func (r *Repository) Update(ctx context.Context, user, id, displayName string, props catalog.Properties) error {
	if err := r.authorize(user, "update"); err != nil {
		return err
	}

	encoded, err := encodeProperties(props)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE objects SET display_name = ?, properties = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		displayName, encoded, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("update object %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("object", id)
	}
	return nil
}

// CreateRelationship implements repository.Writer.
func (r *Repository) CreateRelationship(ctx context.Context, user string, rel catalog.Relationship) error {
	if err := r.authorize(user, "create relationship"); err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range []string{rel.FromID, rel.ToID} {
			if err := r.exists(ctx, tx, id, true); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO relationships (kind, from_id, to_id) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			string(rel.Kind), rel.FromID, rel.ToID)
		return err
	})
}

// Remove implements repository.Writer.
func (r *Repository) Remove(ctx context.Context, user, id string, semantic catalog.DeleteSemantic) error {
	if err := r.authorize(user, "remove"); err != nil {
		return err
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		obj, err := scanObject(tx.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError("object", id)
		}
		if err != nil {
			return err
		}

		switch semantic {
		case catalog.DeleteSoft:
			if obj.Deleted() {
				return errors.NewNotFoundError("object", id)
			}
			_, err := tx.ExecContext(ctx, `UPDATE objects SET deleted_at = ? WHERE id = ?`, formatTime(r.now()), id)
			return err

		case catalog.DeleteHard:
			var dependents int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships r
				JOIN objects o ON o.id = r.to_id
				WHERE r.from_id = ? AND o.deleted_at IS NULL`, id).Scan(&dependents)
			if err != nil {
				return err
			}
			if dependents > 0 {
				return errors.NewUnsupportedOperationError("hard delete", obj.Kind.String(), id,
					fmt.Sprintf("object has %d live dependents", dependents))
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id)
			return err

		default:
			return errors.NewUnsupportedOperationError("remove", obj.Kind.String(), id,
				fmt.Sprintf("unknown delete semantic %q", semantic))
		}
	})
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// exists returns a NotFoundError unless the object is present.
func (r *Repository) exists(ctx context.Context, q queryer, id string, includeDeleted bool) error {
	query := `SELECT 1 FROM objects WHERE id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("object", id)
	}
	return err
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (catalog.Object, error) {
	var (
		obj                  catalog.Object
		kind                 string
		props                sql.NullString
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := row.Scan(&obj.ID, &kind, &obj.QualifiedName, &obj.DisplayName, &props,
		&obj.OwningSourceID, &obj.ParentID, &createdAt, &updatedAt, &deletedAt); err != nil {
		return catalog.Object{}, err
	}
	obj.Kind = catalog.Kind(kind)

	if props.Valid && props.String != "" {
		if err := json.Unmarshal([]byte(props.String), &obj.Properties); err != nil {
			return catalog.Object{}, errors.WrapParse("json", "properties of "+obj.ID, err)
		}
	}

	var err error
	if obj.CreatedAt, err = parseTime(createdAt); err != nil {
		return catalog.Object{}, err
	}
	if obj.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return catalog.Object{}, err
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return catalog.Object{}, err
		}
		obj.DeletedAt = &t
	}
	return obj, nil
}

func encodeProperties(props catalog.Properties) (any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, errors.NewValidationError("properties", nil, err.Error())
	}
	return string(data), nil
}

// timeLayout is fixed width so that text order in ORDER BY matches time
// order. RFC3339Nano trims trailing zeros and does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t utc.Time) string {
	return t.Time.UTC().Format(timeLayout)
}

// parseTime also accepts the trimmed RFC3339Nano form written by earlier
// versions.
func parseTime(s string) (utc.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return utc.Time{}, errors.WrapParse("timestamp", s, err)
	}
	return utc.Time{Time: t.UTC()}, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
