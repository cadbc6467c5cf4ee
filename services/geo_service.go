package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	"nearby-server/utils/geo"
)

// Scan looks for nearby users in the same mode as email and opens a pending match
// with each one that has no live match with them yet.
func (s *MatchService) Scan(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, email)
	if err != nil {
		return err
	}
	return s.scan(ctx, user)
}

// scan is a brute-force pass over every user; callers hold the lock. The scanning
// user always becomes the initiator, so the other side gets to accept or ignore.
func (s *MatchService) scan(ctx context.Context, current models.User) error {
	if !current.IsActive || current.Location == nil {
		return nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return s.storeError(ctx, "list users", err)
	}

	for _, other := range users {
		if other.Email == current.Email {
			continue
		}
		if !other.IsActive || other.Location == nil || other.Mode != current.Mode {
			continue
		}

		distance := geo.DistanceMeters(
			current.Location.Latitude,
			current.Location.Longitude,
			other.Location.Latitude,
			other.Location.Longitude,
		)
		s.log.Debug("distance check",
			zap.String("email", current.Email),
			zap.String("candidate", other.Email),
			zap.Float64("meters", distance),
		)
		if distance > s.radiusMeters {
			continue
		}

		_, err := s.store.FindMatchByPair(ctx, current.Email, other.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return s.storeError(ctx, "find match by pair", err)
		}

		match := models.Match{
			ID:        s.newID(),
			Initiator: current.Email,
			Receiver:  other.Email,
			Mode:      current.Mode,
			Status:    models.MatchStatusPending,
			CreatedAt: s.now(),
		}
		if err := s.store.CreateMatch(ctx, match); err != nil {
			if errors.Is(err, store.ErrExists) {
				continue
			}
			return s.storeError(ctx, "create match", err)
		}

		s.log.Info("match created",
			zap.String("match_id", match.ID),
			zap.String("initiator", match.Initiator),
			zap.String("receiver", match.Receiver),
			zap.String("mode", string(match.Mode)),
			zap.Float64("meters", distance),
		)
		s.notifyMatch(models.EventMatchCreated, match)
	}
	return nil
}
