package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// sessionKeyGrace keeps a record in Redis briefly past its expiry so the
// broker can still tell an expired session from an unknown one.
const sessionKeyGrace = time.Minute

// RedisSessionStore keeps CAPTCHA sessions as JSON values under
// captcha_session:<id>, expiring shortly after the session itself.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

type redisSession struct {
	IPHash    string    `json:"ipHash"`
	UAHash    string    `json:"uaHash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *RedisSessionStore) Create(ctx context.Context, sess *model.CaptchaSession) error {
	b, err := json.Marshal(redisSession{IPHash: sess.IPHash, UAHash: sess.UAHash, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return err
	}
	return s.rdb.SetArgs(ctx, sessionKey(sess.ID), b, redis.SetArgs{
		ExpireAt: sess.ExpiresAt.Add(sessionKeyGrace),
	}).Err()
}

func (s *RedisSessionStore) Find(ctx context.Context, id string) (*model.CaptchaSession, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &model.CaptchaSession{ID: id, IPHash: rs.IPHash, UAHash: rs.UAHash, ExpiresAt: rs.ExpiresAt}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return "captcha_session:" + id
}
