// Package session holds the session-scoped copy of the signed-in employee.
//
// The cached record is only ever changed through Store.Merge, which copies the
// fields owned by one screen from a canonical backend record and leaves the rest alone.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aimd54/staff-directory/internal/models"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned when a merge keeps losing the race against concurrent writers.
var ErrConflict = errors.New("session modified concurrently")

const maxMergeRetries = 5

// Session is one signed-in browser tab.
type Session struct {
	ID        string          `json:"id"`
	User      models.Employee `json:"user"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, user models.Employee) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// Merge copies fields from canonical into the cached user atomically and returns the result.
	Merge(ctx context.Context, id string, fields models.FieldSet, canonical models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON values with a TTL.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix, now: time.Now}
}

// TTL returns the lifetime given to new sessions.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create starts a new session for user.
func (s *RedisStore) Create(ctx context.Context, user models.Employee) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		User:      user.Clone(),
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// Get loads a session.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decode(data)
}

// Merge applies fields from canonical inside a WATCH/MULTI transaction, retrying
// when another writer touched the session in between. The TTL is left unchanged.
func (s *RedisStore) Merge(ctx context.Context, id string, fields models.FieldSet, canonical models.Employee) (*models.Employee, error) {
	key := s.key(id)
	var merged models.Employee

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		sess, err := decode(data)
		if err != nil {
			return err
		}

		fields.Apply(&sess.User, canonical)
		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			merged = sess.User
		}
		return err
	}

	for i := 0; i < maxMergeRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return &merged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to merge session: %w", err)
	}
	return nil, ErrConflict
}

// Delete ends a session. Deleting an unknown session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}
