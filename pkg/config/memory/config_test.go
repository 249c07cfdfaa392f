package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-program/pkg/config"
)

func TestConfig(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Set(uint64(200_000))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), val)

	injected := errors.New("read failure")
	c.Fail(injected)
	_, err = c.Get(ctx)
	assert.Equal(t, injected, err)

	c.Fail(nil)
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), val)

	c.Clear()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Shutdown()
	c.Set(true)
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)

	assert.Equal(t, 6, c.Reads())
}
