package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"nearby-server/models"
	"nearby-server/services"
	"nearby-server/store"
	"nearby-server/store/storetest"
)

func newMiniRedisStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, New(client)
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		_, s := newMiniRedisStore(t)
		return s
	})
}

func TestDeleteMatchKeepsTranscript(t *testing.T) {
	mr, s := newMiniRedisStore(t)
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	if err := s.client.RPush(ctx, messagesKey("m1"), `{"sender":"a@x","text":"hi","createdAt":"2026-01-02T03:04:05Z"}`).Err(); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
	if err := s.client.Set(ctx, matchKey("m1"), `{"id":"m1","initiator":"a@x","receiver":"b@x","mode":"visible","status":"accepted"}`, 0).Err(); err != nil {
		t.Fatalf("seed match: %v", err)
	}

	if err := s.DeleteMatch(ctx, "m1"); err != nil {
		t.Fatalf("delete match: %v", err)
	}
	if mr.Exists(matchKey("m1")) {
		t.Fatalf("match key must be removed")
	}
	if !mr.Exists(messagesKey("m1")) {
		t.Fatalf("transcript must be kept after match removal")
	}
}

func TestCreateMatchReclaimsStalePair(t *testing.T) {
	mr, s := newMiniRedisStore(t)
	ctx := context.Background()

	// A pair key whose match document was never written.
	if err := mr.Set(pairKey(models.PairKey("a@x", "b@x")), "lost"); err != nil {
		t.Fatalf("seed pair: %v", err)
	}

	if _, err := s.FindMatchByPair(ctx, "a@x", "b@x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a dangling pair, got %v", err)
	}

	match := models.Match{ID: "m1", Initiator: "a@x", Receiver: "b@x", Mode: models.ModeVisible, Status: models.MatchStatusPending}
	if err := s.CreateMatch(ctx, match); err != nil {
		t.Fatalf("create over dangling pair: %v", err)
	}
	got, err := s.FindMatchByPair(ctx, "b@x", "a@x")
	if err != nil || got.ID != "m1" {
		t.Fatalf("expected m1 for the pair, got %+v %v", got, err)
	}

	match.ID = "m2"
	if err := s.CreateMatch(ctx, match); !errors.Is(err, store.ErrExists) {
		t.Fatalf("expected ErrExists for a live pair, got %v", err)
	}
	if mr.Exists(matchKey("m2")) {
		t.Fatalf("a refused match must not be written")
	}
}

func TestActivationMatchesDespiteDanglingPair(t *testing.T) {
	mr, s := newMiniRedisStore(t)
	ctx := context.Background()
	svc := services.New(services.Dependencies{Store: s})

	if err := mr.Set(pairKey(models.PairKey("a@x", "b@x")), "lost"); err != nil {
		t.Fatalf("seed pair: %v", err)
	}

	for _, email := range []string{"a@x", "b@x"} {
		if _, err := svc.Users.Login(ctx, email); err != nil {
			t.Fatalf("login %s: %v", email, err)
		}
	}
	for _, step := range []struct {
		email    string
		lat, lon float64
	}{
		{"a@x", 0, 0},
		{"b@x", 0, 0.001},
		{"a@x", 0, 0},
	} {
		lat, lon := step.lat, step.lon
		if _, err := svc.Users.Activate(ctx, step.email, models.ModeVisible, &lat, &lon); err != nil {
			t.Fatalf("activate %s: %v", step.email, err)
		}
	}

	matches, err := svc.Matches.List(ctx, "a@x")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %+v", matches)
	}
}

func TestSaveUserRestoresIndexEntry(t *testing.T) {
	mr, s := newMiniRedisStore(t)
	ctx := context.Background()

	user := models.NewUser("id-a", "a@x", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := mr.ZRem(usersIndexKey, "a@x"); err != nil {
		t.Fatalf("drop index entry: %v", err)
	}

	user.IsActive = true
	if err := s.SaveUser(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Email != "a@x" || !users[0].IsActive {
		t.Fatalf("expected the saved user to be listed, got %+v", users)
	}
}
