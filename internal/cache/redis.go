// Package cache holds the Redis-backed alert namespace.
package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coinpaprika-price-alerts/internal/types"
	"github.com/redis/go-redis/v9"
)

// deleteIfLua deletes a hash field and its timestamp only when the field
// still holds the expected value.
const deleteIfLua = `
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
    redis.call('HDEL', KEYS[2], ARGV[1])
    return redis.call('HDEL', KEYS[1], ARGV[1])
end
return 0
`

// RedisKV stores a namespace as a hash at key <namespace>; creation times
// live in a sibling hash <namespace>:created.
type RedisKV struct {
	rdb       *redis.Client
	namespace string
	deleteIf  *redis.Script
}

// NewRedisClient creates a client and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

func NewRedisKV(rdb *redis.Client, namespace string) *RedisKV {
	return &RedisKV{
		rdb:       rdb,
		namespace: namespace,
		deleteIf:  redis.NewScript(deleteIfLua),
	}
}

func (r *RedisKV) createdKey() string {
	return r.namespace + ":created"
}

// All returns every entry of the namespace ordered by key.
func (r *RedisKV) All(ctx context.Context) ([]types.Entry, error) {
	pipe := r.rdb.Pipeline()
	valsCmd := pipe.HGetAll(ctx, r.namespace)
	createdCmd := pipe.HGetAll(ctx, r.createdKey())
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: read %s: %w", r.namespace, err)
	}

	vals := valsCmd.Val()
	created := createdCmd.Val()

	entries := make([]types.Entry, 0, len(vals))
	for k, v := range vals {
		e := types.Entry{Key: k, Value: v}
		if ts, ok := created[k]; ok {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				e.UpdatedAt = t
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Set writes the value and its timestamp in one transaction.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.namespace, key, value)
		pipe.HSet(ctx, r.createdKey(), key, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: set %s/%s: %w", r.namespace, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.namespace, key)
		pipe.HDel(ctx, r.createdKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: delete %s/%s: %w", r.namespace, key, err)
	}
	return nil
}

// DeleteIf removes key only while it still holds value.
func (r *RedisKV) DeleteIf(ctx context.Context, key, value string) (bool, error) {
	n, err := r.deleteIf.Run(ctx, r.rdb, []string{r.namespace, r.createdKey()}, key, value).Int()
	if err != nil {
		return false, fmt.Errorf("redis: delete %s/%s: %w", r.namespace, key, err)
	}
	return n > 0, nil
}
