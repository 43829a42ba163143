package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"local":  local,
	}
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "a/b/c.yaml", []byte("v1")))
			require.NoError(t, s.Write(ctx, "a/b/c.yaml", []byte("v2")))

			data, err := s.Read(ctx, "a/b/c.yaml")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), data)

			ok, err := s.Exists(ctx, "a/b/c.yaml")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, s.Delete(ctx, "a/b/c.yaml"))
			ok, err = s.Exists(ctx, "a/b/c.yaml")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStorageNotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(ctx, "missing.yaml")
			assert.True(t, errors.Is(err, ErrNotFound))

			err = s.Delete(ctx, "missing.yaml")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStorageList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "tasks/alice/1.yaml", nil))
			require.NoError(t, s.Write(ctx, "tasks/alice/2.yaml", nil))
			require.NoError(t, s.Write(ctx, "tasks/bob/3.yaml", nil))

			paths, err := s.List(ctx, "tasks/alice")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"tasks/alice/1.yaml", "tasks/alice/2.yaml"}, paths)

			paths, err = s.List(ctx, "tasks/nobody")
			require.NoError(t, err)
			assert.Empty(t, paths)
		})
	}
}
