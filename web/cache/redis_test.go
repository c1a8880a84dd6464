package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedisEmbedded(t *testing.T) {
	c, err := InitRedis("", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close() })

	assert.True(t, IsEmbedded())
	assert.Same(t, c, GetClient())
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", c.Get(context.Background(), "k").Val())
}

func TestInitRedisExternal(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := InitRedis(mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close() })

	assert.False(t, IsEmbedded())
	assert.NoError(t, c.Ping(context.Background()).Err())
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitRedis(addr, "")
	assert.Error(t, err)
	assert.Nil(t, GetClient())
}
