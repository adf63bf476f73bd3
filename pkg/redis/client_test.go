package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := New(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		client, _ := newTestClient(t)
		require.NoError(t, client.Ping(ctx))
	})

	t.Run("missing key", func(t *testing.T) {
		client, _ := newTestClient(t)
		_, err := client.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set get del", func(t *testing.T) {
		client, _ := newTestClient(t)
		require.NoError(t, client.Set(ctx, "k", []byte("v"), 0))

		data, err := client.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)

		require.NoError(t, client.Del(ctx, "k"))
		_, err = client.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ttl expires", func(t *testing.T) {
		client, mr := newTestClient(t)
		require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))
		mr.FastForward(2 * time.Minute)
		_, err := client.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ping fails when server is down", func(t *testing.T) {
		client, mr := newTestClient(t)
		mr.Close()
		assert.Error(t, client.Ping(ctx))
	})
}
