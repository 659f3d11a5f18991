package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/shared"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisService is optional: with REDIS_ADDR unset the client stays nil and Enabled reports false.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

var ErrRedisDisabled = errors.New("redis client not initialized")

// compare-and-delete so a lock holder never releases a lock it no longer owns
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := svc.redis.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.WithField("addr", svc.redis.Options().Addr).Info("Connected to Redis")
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Warn("REDIS_ADDR not set, distributed locks and token revocation run in local mode")
		return
	}

	svc.redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
	})
}

// UseClient injects a client, used by tests and tools that manage their own connection.
func (svc *RedisService) UseClient(client *redis.Client) {
	svc.redis = client
}

func (svc *RedisService) Enabled() bool {
	return svc != nil && svc.redis != nil
}

func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}

func (svc *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !svc.Enabled() {
		return ErrRedisDisabled
	}

	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = shared.JSON.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	return svc.redis.Set(ctx, key, data, expiration).Err()
}

func (svc *RedisService) Get(ctx context.Context, key string) (string, error) {
	if !svc.Enabled() {
		return "", ErrRedisDisabled
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (svc *RedisService) Exists(ctx context.Context, key string) (bool, error) {
	if !svc.Enabled() {
		return false, ErrRedisDisabled
	}

	result, err := svc.redis.Exists(ctx, key).Result()
	return result > 0, err
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if !svc.Enabled() {
		return ErrRedisDisabled
	}

	return svc.redis.Del(ctx, keys...).Err()
}

// SetNX stores value only if key is absent, reporting whether it did.
func (svc *RedisService) SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	if !svc.Enabled() {
		return false, ErrRedisDisabled
	}

	return svc.redis.SetNX(ctx, key, value, expiration).Result()
}

// DeleteIfEquals removes key only while it still holds value.
func (svc *RedisService) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	if !svc.Enabled() {
		return false, ErrRedisDisabled
	}

	n, err := releaseScript.Run(ctx, svc.redis, []string{key}, value).Int()
	return n == 1, err
}
