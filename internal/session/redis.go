package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "folio"

// RedisStore keeps sessions in Redis. Every write refreshes the key TTL so
// idle sessions expire on their own.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. A zero ttl keeps sessions forever.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *RedisStore) turnsKey(id string) string {
	return fmt.Sprintf("%s:turns:%s", r.prefix, id)
}

func (r *RedisStore) Create(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.ID), data, r.ttl)
		pipe.Del(ctx, r.turnsKey(s.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return s, nil
}

// appendScript writes the session and pushes the turn only while the
// session key still exists, so a concurrent Delete or expiry cannot bring the
// session back. KEYS: session, turns. ARGV: session JSON, turn JSON, ttl ms.
var appendScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
redis.call("RPUSH", KEYS[2], ARGV[2])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[2], ARGV[3])
end
return 1
`)

func (r *RedisStore) Append(ctx context.Context, t Turn) error {
	s, err := r.Get(ctx, t.SessionID)
	if err != nil {
		return err
	}
	s.UpdatedAt = t.CreatedAt

	sessData, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	turnData, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	keys := []string{r.sessionKey(s.ID), r.turnsKey(s.ID)}
	ok, err := appendScript.Run(ctx, r.client, keys, sessData, turnData, r.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("appending turn to %s: %w", s.ID, err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) Turns(ctx context.Context, id string) ([]Turn, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	items, err := r.client.LRange(ctx, r.turnsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing turns of %s: %w", id, err)
	}
	out := make([]Turn, 0, len(items))
	for _, item := range items {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decoding turn of %s: %w", id, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.sessionKey(id), r.turnsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
