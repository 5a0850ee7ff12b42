package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Compile-time interface check.
var _ domain.SessionStore = (*RedisStore)(nil)

const (
	sessionKeyPrefix = "session:"
	activeSetKey     = "sessions:active"

	defaultSessionTTL = 24 * time.Hour
	pingTimeout       = 5 * time.Second
)

// RedisStore persists sessions in Redis so a conversation survives a
// process restart. Each session lives under its own key as JSON with a
// TTL; a set of IDs indexes the sessions that need supervision.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// RedisConfig carries connection settings for NewRedisStore. URL, when
// set, wins over the individual fields.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection before
// returning the store.
func NewRedisStore(cfg RedisConfig, log *logger.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("storage: parse redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("storage: redis ping %s: %w", opts.Addr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	log.Info("connected to redis at %s (session ttl %s)", opts.Addr, ttl)
	return &RedisStore{client: client, ttl: ttl, log: log}, nil
}

// Save persists a session and keeps the active index in step with its
// state.
func (s *RedisStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("storage: encode session %s: %w", session.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, data, s.ttl)
	if sessionActive(session) {
		pipe.SAdd(ctx, activeSetKey, session.ID)
	} else {
		pipe.SRem(ctx, activeSetKey, session.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storage: save session %s: %w", session.ID, err)
	}

	s.log.Debug("saved session %s (recipe=%s, state=%s)", session.ID, session.RecipeID, session.State)
	return nil
}

// Load retrieves a session by ID.
func (s *RedisStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		s.log.Debug("session not found: %s", id)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load session %s: %w", id, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.SRem(ctx, activeSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storage: delete session %s: %w", id, err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	s.log.Debug("deleted session %s", id)
	return nil
}

// ListActive returns every indexed session whose body still exists.
// Index entries whose session expired are pruned as they are found.
func (s *RedisStore) ListActive(ctx context.Context) ([]*domain.Session, error) {
	ids, err := s.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: list active sessions: %w", err)
	}

	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			s.client.SRem(ctx, activeSetKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
