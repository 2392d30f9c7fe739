package message

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reoring/pulsarschema/avro"
	"github.com/reoring/pulsarschema/internal/logx"
)

// RedisConfig holds the connection settings for RedisVersions.
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key
	Prefix string
}

// DefaultRedisConfig returns the configuration for a local server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379", Prefix: "pulsarschema:"}
}

// RedisVersions is a version table shared through Redis, so producers and
// consumers in different processes agree on version numbers. Documents are
// stored in their JSON form under "<prefix>version:<n>"; parsed documents
// are cached in memory.
type RedisVersions struct {
	client *redis.Client
	prefix string
	cache  sync.Map // string(version) -> *avro.Schema
}

// NewRedisVersions connects to Redis and verifies the connection.
func NewRedisVersions(config RedisConfig) (*RedisVersions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewRedisVersionsWithClient(client, config.Prefix), nil
}

// NewRedisVersionsWithClient uses an existing client.
func NewRedisVersionsWithClient(client *redis.Client, prefix string) *RedisVersions {
	return &RedisVersions{client: client, prefix: prefix}
}

func (r *RedisVersions) versionKey(version []byte) string {
	return r.prefix + "version:" + hex.EncodeToString(version)
}

func (r *RedisVersions) fingerprintKey(s *avro.Schema) string {
	return r.prefix + "fingerprint:" + strconv.FormatUint(avro.Fingerprint64(s), 16)
}

// Add registers s and returns its version. A document whose layout is
// already registered keeps its version.
func (r *RedisVersions) Add(ctx context.Context, s *avro.Schema) ([]byte, error) {
	fpKey := r.fingerprintKey(s)
	existing, err := r.client.Get(ctx, fpKey).Bytes()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	doc, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	n, err := r.client.Incr(ctx, r.prefix+"next").Result()
	if err != nil {
		return nil, err
	}
	version := Version(n - 1)
	if err := r.client.Set(ctx, r.versionKey(version), doc, 0).Err(); err != nil {
		return nil, err
	}
	ok, err := r.client.SetNX(ctx, fpKey, version, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another registration of the same layout.
		if err := r.client.Del(ctx, r.versionKey(version)).Err(); err != nil {
			logx.L().Warn("cannot remove orphaned schema version", zap.Error(err))
		}
		return r.client.Get(ctx, fpKey).Bytes()
	}
	r.cache.Store(string(version), s)
	return version, nil
}

func (r *RedisVersions) WriterSchema(ctx context.Context, version []byte) (*avro.Schema, error) {
	if s, ok := r.cache.Load(string(version)); ok {
		return s.(*avro.Schema), nil
	}
	doc, err := r.client.Get(ctx, r.versionKey(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, hex.EncodeToString(version))
	}
	if err != nil {
		return nil, err
	}
	s, err := avro.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("schema version %s: %w", hex.EncodeToString(version), err)
	}
	r.cache.Store(string(version), s)
	return s, nil
}

// Close closes the Redis connection.
func (r *RedisVersions) Close() error {
	return r.client.Close()
}
