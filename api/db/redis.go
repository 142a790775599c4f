// api/db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

// ErrCacheUnavailable is returned when no Redis connection has been
// initialized. Callers treat cache errors as misses, so standalone runs and
// tests work without Redis.
var ErrCacheUnavailable = errors.New("redis cache not initialized")

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// Cached rows describe who may see health data, so they are encrypted
	// at rest in Redis.
	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func cacheSet(ctx context.Context, key string, value interface{}) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	encrypted, err := encrypt(payload)
	if err != nil {
		return fmt.Errorf("failed to encrypt cache value: %w", err)
	}

	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encrypted), defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache value: %w", err)
	}
	return nil
}

func cacheGet(ctx context.Context, key string, out interface{}) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}

	encoded, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("cache miss for key %s", key)
		}
		return fmt.Errorf("failed to read cache: %w", err)
	}

	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}

	payload, err := decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("failed to decrypt cached value: %w", err)
	}

	return json.Unmarshal(payload, out)
}

func CachePolicy(ctx context.Context, policy *model.Policy) error {
	return cacheSet(ctx, fmt.Sprintf("policy:%s", policy.ID), policy)
}

func GetCachedPolicy(ctx context.Context, policyID model.PolicyID) (*model.Policy, error) {
	var policy model.Policy
	if err := cacheGet(ctx, fmt.Sprintf("policy:%s", policyID), &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func DeleteCachedPolicy(ctx context.Context, policyID model.PolicyID) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}
	return RedisClient.Del(ctx, fmt.Sprintf("policy:%s", policyID)).Err()
}

func CacheAttribute(ctx context.Context, attribute *model.Attribute) error {
	return cacheSet(ctx, fmt.Sprintf("attr:%s:%s", attribute.Subject, attribute.Key), attribute)
}

func GetCachedAttribute(ctx context.Context, subject, key string) (*model.Attribute, error) {
	var attribute model.Attribute
	if err := cacheGet(ctx, fmt.Sprintf("attr:%s:%s", subject, key), &attribute); err != nil {
		return nil, err
	}
	return &attribute, nil
}

func DeleteCachedAttribute(ctx context.Context, subject, key string) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}
	return RedisClient.Del(ctx, fmt.Sprintf("attr:%s:%s", subject, key)).Err()
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}
