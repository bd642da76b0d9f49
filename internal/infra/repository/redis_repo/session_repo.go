package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 未完成的對話一小時後丟棄
const SessionTTL = time.Hour

var ErrSessionNotFound = errors.New("session not found")

// Session 使用者目前所在的對話流程與已收集的欄位
type Session struct {
	Flow  string            `json:"flow"`
	Stage string            `json:"stage"`
	Data  map[string]string `json:"data"`
}

func (s *Session) Get(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

type SessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepo(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client, ttl: SessionTTL}
}

func generateSessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (r *SessionRepo) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := r.client.Get(ctx, generateSessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepo) Save(ctx context.Context, userID int64, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, generateSessionKey(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, generateSessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
