package devicelock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lounge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyDeviceStart = "lounge:device:%s:start"

var ErrDeviceBusy = errors.New("device_busy")

// Lock serializes session starts per device across API replicas.
// A nil *Lock, or one built without REDIS_ADDR, never blocks.
type Lock struct {
	locker *redisLocker
	ttl    time.Duration
	log    *zap.Logger
}

func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *Lock {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return &Lock{log: log.Named("devicelock")}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ttl := time.Duration(cfg.Redis.DeviceLockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}

	return &Lock{
		locker: newRedisLocker(client),
		ttl:    ttl,
		log:    log.Named("devicelock"),
	}
}

func (l *Lock) Enabled() bool {
	return l != nil && l.locker != nil
}

// Acquire takes the start lock for a device. The returned release func is always non-nil.
func (l *Lock) Acquire(ctx context.Context, deviceID snowflake.ID) (func(), error) {
	if !l.Enabled() {
		return func() {}, nil
	}

	key := Key(deviceID)
	token, ok, err := l.locker.tryLock(ctx, key, l.ttl)
	if err != nil {
		return func() {}, fmt.Errorf("device lock: %w", err)
	}
	if !ok {
		return func() {}, ErrDeviceBusy
	}

	return func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.locker.release(releaseCtx, key, token); err != nil {
			l.log.Warn("release device lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func Key(deviceID snowflake.ID) string {
	return fmt.Sprintf(keyDeviceStart, deviceID.String())
}

var Module = fx.Module("devicelock",
	fx.Provide(New),
)
