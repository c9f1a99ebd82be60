package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/dataengine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "Container",
			ID:       "orders-topic",
		}
		assert.Equal(t, "Container orders-topic not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("constructor", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("source", "kafka-engine")
		assert.Equal(t, "source kafka-engine not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("SchemaType", "test")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "displayName",
			Message: "cannot be blank",
		}
		assert.Equal(t, "validation failed for field displayName: cannot be blank", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Message: "invalid payload",
		}
		assert.Equal(t, "validation failed: invalid payload", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestConflictError(t *testing.T) {
	err := pkgerrors.NewConflictError("Field", "orders.id")
	assert.Equal(t, "Field orders.id already exists", err.Error())
	assert.True(t, pkgerrors.IsConflict(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestUnsupportedOperationError(t *testing.T) {
	t.Run("with id", func(t *testing.T) {
		err := pkgerrors.NewUnsupportedOperationError("hard delete", "Container", "c-1", "object has 2 live dependents")
		assert.Equal(t, "hard delete of Container c-1 is not supported: object has 2 live dependents", err.Error())
		assert.True(t, pkgerrors.IsUnsupported(err))
	})

	t.Run("without id", func(t *testing.T) {
		err := pkgerrors.NewUnsupportedOperationError("purge", "Field", "", "disabled")
		assert.Equal(t, "purge of Field is not supported: disabled", err.Error())
	})
}

func TestAuthorizationError(t *testing.T) {
	err := pkgerrors.NewAuthorizationError("mallory", "create", "user is not on the allow list")
	assert.Contains(t, err.Error(), "mallory")
	assert.Contains(t, err.Error(), "create")
	assert.True(t, pkgerrors.IsUnauthorized(err))

	base := errors.New("token expired")
	wrapped := &pkgerrors.AuthorizationError{User: "bob", Message: "denied", Err: base}
	assert.Equal(t, "user bob is not authorized: denied", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("repository", "unknown driver \"oracle\"", nil)
	assert.Contains(t, err.Error(), "repository")
	assert.Contains(t, err.Error(), "oracle")
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "/data/catalog.yaml", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
		assert.Contains(t, err.Error(), "/data/catalog.yaml")
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("read", "batch.yaml", errors.New("permission denied"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "read", ioErr.Operation)
		assert.Equal(t, "batch.yaml", ioErr.Path)
		assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	})
}

func TestResourceError(t *testing.T) {
	t.Run("keeps underlying classification", func(t *testing.T) {
		err := pkgerrors.WrapResource("upsert", "SchemaType", "orders.schema",
			pkgerrors.NewNotFoundError("Container", "orders"))
		resErr, ok := err.(*pkgerrors.ResourceError)
		require.True(t, ok)
		assert.Equal(t, "upsert", resErr.Operation)
		assert.Equal(t, "orders.schema", resErr.ID)
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Equal(t, "failed to upsert SchemaType orders.schema: Container orders not found", err.Error())
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapResource("upsert", "Field", "f", nil))
	})

	t.Run("authorization survives wrapping", func(t *testing.T) {
		auth := pkgerrors.NewAuthorizationError("eve", "update", "denied")
		err := pkgerrors.WrapResource("upsert", "Field", "f", auth)
		var target *pkgerrors.AuthorizationError
		require.True(t, errors.As(err, &target))
		assert.Same(t, auth, target)
	})
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{
			name: "with position",
			err:  &pkgerrors.ParseError{Format: "yaml", File: "b.yaml", Line: 3, Column: 7, Message: "bad indent"},
			want: "parse error in yaml at b.yaml:3:7: bad indent",
		},
		{
			name: "file only",
			err:  &pkgerrors.ParseError{Format: "json", File: "b.json", Message: "eof"},
			want: "parse error in json file b.json: eof",
		},
		{
			name: "bare",
			err:  &pkgerrors.ParseError{Format: "yaml", Message: "empty"},
			want: "yaml parse error: empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
