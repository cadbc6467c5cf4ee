package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"nearby-server/models"
	"nearby-server/store"
)

const (
	usersIndexKey = "users:index"
	usersSeqKey   = "users:seq"
	matchesSeqKey = "matches:seq"
)

// Store keeps users, matches and transcripts in Redis. Values are JSON documents;
// ordering comes from sequence-scored sorted sets.
type Store struct {
	client *goredis.Client
}

var _ store.Store = (*Store)(nil)

func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

func userKey(email string) string        { return "user:" + email }
func matchKey(id string) string          { return "match:" + id }
func pairKey(key string) string          { return "match:pair:" + key }
func userMatchesKey(email string) string { return "matches:user:" + email }
func messagesKey(matchID string) string  { return "messages:" + matchID }

func (s *Store) GetUser(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.getJSON(ctx, userKey(email), &user); err != nil {
		return models.User{}, err
	}
	if user.Interests == nil {
		user.Interests = []string{}
	}
	return user, nil
}

// createUserScript stores a new user and indexes it in one step.
// KEYS: user, users index, users seq. ARGV: payload, email.
var createUserScript = goredis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[2], redis.call('INCR', KEYS[3]), ARGV[2])
return 1
`)

// saveUserScript replaces an existing user and re-indexes it when the index entry is missing.
// KEYS: user, users index, users seq. ARGV: payload, email.
var saveUserScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
if not redis.call('ZSCORE', KEYS[2], ARGV[2]) then
	redis.call('ZADD', KEYS[2], redis.call('INCR', KEYS[3]), ARGV[2])
end
return 1
`)

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	keys := []string{userKey(user.Email), usersIndexKey, usersSeqKey}
	created, err := createUserScript.Run(ctx, s.client, keys, payload, user.Email).Int()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if created == 0 {
		return store.ErrExists
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	keys := []string{userKey(user.Email), usersIndexKey, usersSeqKey}
	saved, err := saveUserScript.Run(ctx, s.client, keys, payload, user.Email).Int()
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if saved == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	emails, err := s.client.ZRange(ctx, usersIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list user index: %w", err)
	}

	keys := make([]string, 0, len(emails))
	for _, email := range emails {
		keys = append(keys, userKey(email))
	}

	users := make([]models.User, 0, len(keys))
	err = s.mgetJSON(ctx, keys, func(raw string) error {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		if user.Interests == nil {
			user.Interests = []string{}
		}
		users = append(users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (models.Match, error) {
	var match models.Match
	if err := s.getJSON(ctx, matchKey(id), &match); err != nil {
		return models.Match{}, err
	}
	return match, nil
}

// createMatchScript claims the pair and writes the match with its user indexes in one
// step. A pair key left pointing at a match that no longer exists is reclaimed.
// KEYS: pair, match, initiator matches, receiver matches, matches seq.
// ARGV: match id, payload, match key prefix.
var createMatchScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and redis.call('EXISTS', ARGV[3] .. current) == 1 then
	return 0
end
local seq = redis.call('INCR', KEYS[5])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], seq, ARGV[1])
redis.call('ZADD', KEYS[4], seq, ARGV[1])
return 1
`)

func (s *Store) CreateMatch(ctx context.Context, match models.Match) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}

	keys := []string{
		pairKey(match.PairKey()),
		matchKey(match.ID),
		userMatchesKey(match.Initiator),
		userMatchesKey(match.Receiver),
		matchesSeqKey,
	}
	created, err := createMatchScript.Run(ctx, s.client, keys, match.ID, payload, matchKey("")).Int()
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	if created == 0 {
		return store.ErrExists
	}
	return nil
}

func (s *Store) SaveMatch(ctx context.Context, match models.Match) error {
	return s.replaceJSON(ctx, matchKey(match.ID), match)
}

func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, matchKey(id), pairKey(match.PairKey()))
	pipe.ZRem(ctx, userMatchesKey(match.Initiator), id)
	pipe.ZRem(ctx, userMatchesKey(match.Receiver), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

func (s *Store) FindMatchByPair(ctx context.Context, a, b string) (models.Match, error) {
	id, err := s.client.Get(ctx, pairKey(models.PairKey(a, b))).Result()
	if errors.Is(err, goredis.Nil) {
		return models.Match{}, store.ErrNotFound
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("get match pair: %w", err)
	}
	return s.GetMatch(ctx, id)
}

func (s *Store) ListMatchesForUser(ctx context.Context, email string) ([]models.Match, error) {
	ids, err := s.client.ZRange(ctx, userMatchesKey(email), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list user matches: %w", err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, matchKey(id))
	}

	matches := make([]models.Match, 0, len(keys))
	err = s.mgetJSON(ctx, keys, func(raw string) error {
		var match models.Match
		if err := json.Unmarshal([]byte(raw), &match); err != nil {
			return fmt.Errorf("decode match: %w", err)
		}
		matches = append(matches, match)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *Store) AppendMessage(ctx context.Context, matchID string, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, messagesKey(matchID), payload).Err(); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	values, err := s.client.LRange(ctx, messagesKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]models.Message, 0, len(values))
	for _, raw := range values {
		var msg models.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) replaceJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	replaced, err := s.client.SetXX(ctx, key, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if !replaced {
		return store.ErrNotFound
	}
	return nil
}

// mgetJSON fetches keys in order and hands every present value to decode.
func (s *Store) mgetJSON(ctx context.Context, keys []string, decode func(raw string) error) error {
	if len(keys) == 0 {
		return nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("mget: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode(raw); err != nil {
			return err
		}
	}
	return nil
}
