package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cratetrack/internal/pkg/cache"
)

func TestNopClient_AlwaysMisses(t *testing.T) {
	var c cache.Client = cache.NopClient{}
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "inventory:summary:t1", "x", time.Minute))

	_, err := c.Get(ctx, "inventory:summary:t1")
	assert.Equal(t, cache.ErrCacheMiss, err)
	assert.NoError(t, c.Delete(ctx, "a", "b"))
}
