package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage(t *testing.T) {
	ctx := context.Background()
	stub := NewStubObjectStorage()

	t.Run("upload then exists then delete", func(t *testing.T) {
		key := OrderFileKey(42, 7, "act.pdf")
		require.NoError(t, stub.Upload(ctx, key, []byte("content"), "application/pdf"))

		exists, err := stub.ObjectExists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		data, ok := stub.Get(key)
		require.True(t, ok)
		assert.Equal(t, []byte("content"), data)

		require.NoError(t, stub.DeleteObject(ctx, key))
		exists, err = stub.ObjectExists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("download URL carries the key", func(t *testing.T) {
		url, expiresAt, err := stub.GenerateDownloadURL(ctx, "orders/1/executions/2/x.pdf", 10*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "orders/1/executions/2/x.pdf")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		assert.Error(t, stub.Upload(ctx, "", nil, ""))
		_, _, err := stub.GenerateDownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
	})
}

func TestOrderFileKey(t *testing.T) {
	first := OrderFileKey(42, 7, "act.pdf")
	second := OrderFileKey(42, 7, "act.pdf")

	assert.Contains(t, first, "orders/42/executions/7/")
	assert.Contains(t, first, "act.pdf")
	// keys embed a random component so re-uploads never collide
	assert.NotEqual(t, first, second)
}
