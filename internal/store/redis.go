package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/paste-go/internal/paste"
)

// insertScript creates the paste hash only when the key is free. Expiry is
// mirrored into a native PEXPIREAT as housekeeping; liveness is always
// evaluated by the engine's clock at read time.
var insertScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "content", ARGV[1], "created_at", ARGV[2], "reads_consumed", 0)
if ARGV[3] ~= "" then
  redis.call("HSET", KEYS[1], "expires_at", ARGV[3])
  redis.call("PEXPIREAT", KEYS[1], math.floor(tonumber(ARGV[3]) / 1000000))
end
if ARGV[4] ~= "" then
  redis.call("HSET", KEYS[1], "max_reads", ARGV[4])
end
return 1
`)

// consumeScript is the atomic conditional increment: it bumps reads_consumed
// only while the pre-increment value is under max_reads, all within a single
// script execution. A false reply means the key is gone; a {0} reply means
// the budget predicate rejected the increment.
var consumeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return false
end
local max = redis.call("HGET", KEYS[1], "max_reads")
if max then
  local consumed = tonumber(redis.call("HGET", KEYS[1], "reads_consumed"))
  if consumed >= tonumber(max) then
    return {0}
  end
end
local consumed = redis.call("HINCRBY", KEYS[1], "reads_consumed", 1)
return {
  consumed,
  redis.call("HGET", KEYS[1], "content"),
  max or "",
  redis.call("HGET", KEYS[1], "created_at"),
  redis.call("HGET", KEYS[1], "expires_at") or "",
}
`)

// RedisStore is a Redis implementation of paste.Repository. Each paste is a
// hash under "paste:<id>"; the read counter is only ever touched by
// consumeScript.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed paste store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "paste:",
	}
}

func (r *RedisStore) key(id paste.ID) string {
	return r.prefix + string(id)
}

func (r *RedisStore) Insert(ctx context.Context, p *paste.Paste) error {
	expiresAt := ""
	if p.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(p.ExpiresAt.UnixNano(), 10)
	}

	maxReads := ""
	if p.MaxReads != nil {
		maxReads = strconv.FormatInt(*p.MaxReads, 10)
	}

	created, err := insertScript.Run(ctx, r.client, []string{r.key(p.ID)},
		p.Content,
		strconv.FormatInt(p.CreatedAt.UnixNano(), 10),
		expiresAt,
		maxReads,
	).Int64()
	if err != nil {
		return fmt.Errorf("redis insert: %w", err)
	}

	if created == 0 {
		return paste.ErrDuplicateID
	}

	return nil
}

func (r *RedisStore) Get(ctx context.Context, id paste.ID) (*paste.Paste, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	if len(fields) == 0 {
		return nil, paste.ErrNotFound
	}

	return pasteFromFields(id, fields)
}

func (r *RedisStore) ConsumeRead(ctx context.Context, id paste.ID) (*paste.Paste, error) {
	reply, err := consumeScript.Run(ctx, r.client, []string{r.key(id)}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, paste.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("redis consume: %w", err)
	}

	values, ok := reply.([]interface{})
	if !ok || len(values) == 0 {
		return nil, fmt.Errorf("redis consume: unexpected reply %T", reply)
	}

	consumed, ok := values[0].(int64)
	if !ok {
		return nil, fmt.Errorf("redis consume: unexpected count %T", values[0])
	}

	if consumed == 0 {
		return nil, paste.ErrBudgetExhausted
	}

	if len(values) != 5 {
		return nil, fmt.Errorf("redis consume: unexpected reply length %d", len(values))
	}

	p := &paste.Paste{
		ID:            id,
		ReadsConsumed: consumed,
	}

	if p.Content, ok = values[1].(string); !ok {
		return nil, fmt.Errorf("redis consume: unexpected content %T", values[1])
	}

	if s, _ := values[2].(string); s != "" {
		maxReads, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis consume: parse max_reads: %w", err)
		}

		p.MaxReads = &maxReads
	}

	if s, _ := values[3].(string); s != "" {
		p.CreatedAt = timeFromNanos(s)
	}

	if s, _ := values[4].(string); s != "" {
		expiresAt := timeFromNanos(s)
		p.ExpiresAt = &expiresAt
	}

	return p, nil
}

func pasteFromFields(id paste.ID, fields map[string]string) (*paste.Paste, error) {
	p := &paste.Paste{
		ID:      id,
		Content: fields["content"],
	}

	if s, ok := fields["created_at"]; ok {
		p.CreatedAt = timeFromNanos(s)
	}

	if s, ok := fields["expires_at"]; ok && s != "" {
		expiresAt := timeFromNanos(s)
		p.ExpiresAt = &expiresAt
	}

	if s, ok := fields["max_reads"]; ok && s != "" {
		maxReads, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis parse max_reads: %w", err)
		}

		p.MaxReads = &maxReads
	}

	if s, ok := fields["reads_consumed"]; ok {
		consumed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis parse reads_consumed: %w", err)
		}

		p.ReadsConsumed = consumed
	}

	return p, nil
}

func timeFromNanos(s string) time.Time {
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(0, nanos).UTC()
}

// Compile-time check.
var _ paste.Repository = (*RedisStore)(nil)
