package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/redis"
)

// Session is the server-held state of one running search. The query is
// frozen when the session is created so later pages always use the
// payload the search started with.
type Session struct {
	Token        string    `json:"token"`
	Query        Query     `json:"query"`
	Results      []Result  `json:"results"`
	TotalMatches int       `json:"total_matches"`
	HasMore      bool      `json:"has_more"`
	SearchMode   string    `json:"search_mode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionStore persists search sessions between page requests.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a session store on the shared Redis client.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal search session")
	}
	key := s.client.SearchSessionKey(session.Token)
	if err := s.client.Set(ctx, key, string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store search session")
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.SearchSessionKey(token))
	if err != nil {
		if err == goredis.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "search session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load search session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unmarshal search session")
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.client.SearchSessionKey(token))
}

// MemorySessionStore is an in-process store used in tests and single
// instance deployments.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemorySessionStore builds an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]*Session{}}
}

func (s *MemorySessionStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	clone.Results = append([]Result(nil), session.Results...)
	s.sessions[session.Token] = &clone
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[token]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "search session not found or expired")
	}
	clone := *stored
	clone.Results = append([]Result(nil), stored.Results...)
	return &clone, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
