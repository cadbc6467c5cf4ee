// Package store defines the persistence seam for users, matches and transcripts.
// The memory backend keeps everything process-local; redis and mongo are opt-in.
package store

import (
	"context"
	"errors"

	"nearby-server/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

type UserStore interface {
	GetUser(ctx context.Context, email string) (models.User, error)
	// CreateUser fails with ErrExists when the email is taken.
	CreateUser(ctx context.Context, user models.User) error
	// SaveUser replaces an existing user and fails with ErrNotFound otherwise.
	SaveUser(ctx context.Context, user models.User) error
	// ListUsers returns every user in creation order.
	ListUsers(ctx context.Context) ([]models.User, error)
}

type MatchStore interface {
	GetMatch(ctx context.Context, id string) (models.Match, error)
	// CreateMatch fails with ErrExists when a match already exists for the unordered pair.
	CreateMatch(ctx context.Context, match models.Match) error
	SaveMatch(ctx context.Context, match models.Match) error
	// DeleteMatch removes the match and frees its pair. Its transcript is kept.
	DeleteMatch(ctx context.Context, id string) error
	FindMatchByPair(ctx context.Context, a, b string) (models.Match, error)
	// ListMatchesForUser returns matches where email is initiator or receiver, oldest first.
	ListMatchesForUser(ctx context.Context, email string) ([]models.Match, error)
}

type MessageStore interface {
	AppendMessage(ctx context.Context, matchID string, msg models.Message) error
	// ListMessages returns the transcript in insertion order, or an empty slice.
	ListMessages(ctx context.Context, matchID string) ([]models.Message, error)
}

type Store interface {
	UserStore
	MatchStore
	MessageStore
	Close(ctx context.Context) error
}
