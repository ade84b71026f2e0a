package devicelock

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lounge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledLockNeverBlocks(t *testing.T) {
	lock := New(nil, config.Config{}, zap.NewNop())
	assert.False(t, lock.Enabled())

	release, err := lock.Acquire(context.Background(), snowflake.ID(42))
	require.NoError(t, err)
	require.NotNil(t, release)
	release()

	// a second acquire on the same device still succeeds
	_, err = lock.Acquire(context.Background(), snowflake.ID(42))
	assert.NoError(t, err)
}

func TestNilLock(t *testing.T) {
	var lock *Lock
	release, err := lock.Acquire(context.Background(), snowflake.ID(1))
	assert.NoError(t, err)
	assert.NotPanics(t, release)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lounge:device:42:start", Key(snowflake.ID(42)))
}
