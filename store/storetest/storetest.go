// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearby-server/models"
	"nearby-server/store"
)

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("matches", func(t *testing.T) { testMatches(t, newStore(t)) })
	t.Run("match pair is unordered", func(t *testing.T) { testMatchPair(t, newStore(t)) })
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
}

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	if _, err := s.GetUser(ctx, "a@x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := s.SaveUser(ctx, models.NewUser("id-a", "a@x", base)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when saving unknown user, got %v", err)
	}

	for i, email := range []string{"c@x", "a@x", "b@x"} {
		if err := s.CreateUser(ctx, models.NewUser("id-"+email, email, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}
	if err := s.CreateUser(ctx, models.NewUser("id-dup", "a@x", base)); !errors.Is(err, store.ErrExists) {
		t.Fatalf("expected ErrExists for duplicate user, got %v", err)
	}

	user, err := s.GetUser(ctx, "a@x")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != "id-a@x" || user.Interests == nil || user.IsActive || user.Mode != models.ModeNone {
		t.Fatalf("unexpected fresh user: %+v", user)
	}

	started := base.Add(time.Minute)
	user.Name = "Ana"
	user.Interests = []string{"chess"}
	user.IsActive = true
	user.Mode = models.ModeAnonymous
	user.AnonymousStartedAt = &started
	user.Location = &models.Location{Latitude: 1.5, Longitude: -2.25}
	if err := s.SaveUser(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	got, err := s.GetUser(ctx, "a@x")
	if err != nil {
		t.Fatalf("get saved user: %v", err)
	}
	if got.Name != "Ana" || got.Mode != models.ModeAnonymous || !got.IsActive {
		t.Fatalf("unexpected saved user: %+v", got)
	}
	if got.Location == nil || got.Location.Latitude != 1.5 || got.Location.Longitude != -2.25 {
		t.Fatalf("unexpected location: %+v", got.Location)
	}
	if got.AnonymousStartedAt == nil || !got.AnonymousStartedAt.Equal(started) {
		t.Fatalf("unexpected anonymous start: %v", got.AnonymousStartedAt)
	}
	if len(got.Interests) != 1 || got.Interests[0] != "chess" {
		t.Fatalf("unexpected interests: %v", got.Interests)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var order []string
	for _, u := range users {
		order = append(order, u.Email)
	}
	if len(order) != 3 || order[0] != "c@x" || order[1] != "a@x" || order[2] != "b@x" {
		t.Fatalf("users not in creation order: %v", order)
	}
}

func newMatch(id, initiator, receiver string, createdAt time.Time) models.Match {
	return models.Match{
		ID:        id,
		Initiator: initiator,
		Receiver:  receiver,
		Mode:      models.ModeAnonymous,
		Status:    models.MatchStatusPending,
		CreatedAt: createdAt,
	}
}

func testMatches(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	if _, err := s.GetMatch(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteMatch(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}

	if err := s.CreateMatch(ctx, newMatch("m1", "a@x", "b@x", base)); err != nil {
		t.Fatalf("create m1: %v", err)
	}
	if err := s.CreateMatch(ctx, newMatch("m2", "c@x", "a@x", base.Add(time.Second))); err != nil {
		t.Fatalf("create m2: %v", err)
	}
	if err := s.CreateMatch(ctx, newMatch("m3", "b@x", "c@x", base.Add(2*time.Second))); err != nil {
		t.Fatalf("create m3: %v", err)
	}

	m, err := s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("get m1: %v", err)
	}
	requester := "a@x"
	m.Status = models.MatchStatusAccepted
	m.RevealRequestedBy = &requester
	if err := s.SaveMatch(ctx, m); err != nil {
		t.Fatalf("save m1: %v", err)
	}
	got, err := s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("get m1 after save: %v", err)
	}
	if got.Status != models.MatchStatusAccepted || got.RevealRequestedBy == nil || *got.RevealRequestedBy != "a@x" {
		t.Fatalf("unexpected saved match: %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("unexpected createdAt: %v", got.CreatedAt)
	}

	list, err := s.ListMatchesForUser(ctx, "a@x")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(list) != 2 || list[0].ID != "m1" || list[1].ID != "m2" {
		t.Fatalf("unexpected matches for a@x: %+v", list)
	}

	if err := s.DeleteMatch(ctx, "m1"); err != nil {
		t.Fatalf("delete m1: %v", err)
	}
	if _, err := s.GetMatch(ctx, "m1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted match to be gone, got %v", err)
	}
	list, err = s.ListMatchesForUser(ctx, "a@x")
	if err != nil {
		t.Fatalf("list matches after delete: %v", err)
	}
	if len(list) != 1 || list[0].ID != "m2" {
		t.Fatalf("unexpected matches after delete: %+v", list)
	}

	none, err := s.ListMatchesForUser(ctx, "nobody@x")
	if err != nil {
		t.Fatalf("list for stranger: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", none)
	}
}

func testMatchPair(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	if _, err := s.FindMatchByPair(ctx, "a@x", "b@x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.CreateMatch(ctx, newMatch("m1", "a@x", "b@x", base)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateMatch(ctx, newMatch("m2", "b@x", "a@x", base)); !errors.Is(err, store.ErrExists) {
		t.Fatalf("expected ErrExists for reversed pair, got %v", err)
	}

	found, err := s.FindMatchByPair(ctx, "b@x", "a@x")
	if err != nil {
		t.Fatalf("find reversed: %v", err)
	}
	if found.ID != "m1" {
		t.Fatalf("unexpected match: %+v", found)
	}

	if err := s.DeleteMatch(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.CreateMatch(ctx, newMatch("m3", "b@x", "a@x", base)); err != nil {
		t.Fatalf("pair must be free after delete: %v", err)
	}
}

func testMessages(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	empty, err := s.ListMessages(ctx, "m1")
	if err != nil {
		t.Fatalf("list empty transcript: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil transcript, got %#v", empty)
	}

	texts := []string{"hi", "hey", "how are you"}
	for i, text := range texts {
		msg := models.Message{Sender: "a@x", Text: text, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.AppendMessage(ctx, "m1", msg); err != nil {
			t.Fatalf("append %q: %v", text, err)
		}
	}
	if err := s.AppendMessage(ctx, "m2", models.Message{Sender: "c@x", Text: "other", CreatedAt: base}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	transcript, err := s.ListMessages(ctx, "m1")
	if err != nil {
		t.Fatalf("list transcript: %v", err)
	}
	if len(transcript) != len(texts) {
		t.Fatalf("unexpected transcript length: got %d want %d", len(transcript), len(texts))
	}
	for i, msg := range transcript {
		if msg.Text != texts[i] || msg.Sender != "a@x" {
			t.Fatalf("unexpected message %d: %+v", i, msg)
		}
	}
}
