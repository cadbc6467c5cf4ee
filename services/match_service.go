package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	apierrors "nearby-server/utils/errors"
)

type MatchService struct {
	*core
	radiusMeters float64
}

var errInvalidMatch = apierrors.Validation("Invalid match")

// List returns every match the user takes part in, in creation order.
func (s *MatchService) List(ctx context.Context, email string) ([]models.Match, error) {
	if email == "" {
		return nil, apierrors.Validation("Email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.store.ListMatchesForUser(ctx, email)
	if err != nil {
		return nil, s.storeError(ctx, "list matches", err)
	}
	return matches, nil
}

// Accept moves a pending match to accepted. Only the receiver may accept.
func (s *MatchService) Accept(ctx context.Context, matchID, email string) (models.Match, error) {
	if err := requireMatchAndEmail(matchID, email); err != nil {
		return models.Match{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Match{}, apierrors.NotFound("Match not found")
	}
	if err != nil {
		return models.Match{}, err
	}
	if match.Receiver != email {
		return models.Match{}, apierrors.Forbidden("Not allowed")
	}
	if match.Status == models.MatchStatusAccepted {
		return match, nil
	}

	match.Status = models.MatchStatusAccepted
	if err := s.store.SaveMatch(ctx, match); err != nil {
		return models.Match{}, s.storeError(ctx, "save match", err)
	}
	s.log.Info("match accepted", zap.String("match_id", match.ID), zap.String("email", email))
	s.notifyMatch(models.EventMatchAccepted, match)
	return match, nil
}

// Ignore removes a match. It is only visible to the receiver, so anyone else gets
// the same answer as for an unknown id.
func (s *MatchService) Ignore(ctx context.Context, matchID, email string) error {
	if err := requireMatchAndEmail(matchID, email); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && match.Receiver != email) {
		return apierrors.NotFound("Match not found")
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("Match not found")
		}
		return s.storeError(ctx, "delete match", err)
	}
	s.log.Info("match ignored", zap.String("match_id", matchID), zap.String("email", email))
	return nil
}

// RequestReveal records the first reveal request on an anonymous match. A request
// from the other participant completes the handshake.
func (s *MatchService) RequestReveal(ctx context.Context, matchID, email string) (models.Match, error) {
	if err := requireMatchAndEmail(matchID, email); err != nil {
		return models.Match{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.anonymousMatch(ctx, matchID)
	if err != nil {
		return models.Match{}, err
	}

	switch {
	case match.RevealRequestedBy == nil:
		requester := email
		match.RevealRequestedBy = &requester
		if err := s.store.SaveMatch(ctx, match); err != nil {
			return models.Match{}, s.storeError(ctx, "save match", err)
		}
		s.log.Info("reveal requested", zap.String("match_id", match.ID), zap.String("email", email))
		return match, nil
	case *match.RevealRequestedBy != email:
		return s.reveal(ctx, match)
	default:
		return match, nil
	}
}

// AcceptReveal completes a pending reveal request made by someone else.
func (s *MatchService) AcceptReveal(ctx context.Context, matchID, email string) (models.Match, error) {
	if err := requireMatchAndEmail(matchID, email); err != nil {
		return models.Match{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.anonymousMatch(ctx, matchID)
	if err != nil {
		return models.Match{}, err
	}
	if match.RevealRequestedBy == nil || *match.RevealRequestedBy == email {
		return match, nil
	}
	return s.reveal(ctx, match)
}

func (s *MatchService) reveal(ctx context.Context, match models.Match) (models.Match, error) {
	match.Reveal()
	if err := s.store.SaveMatch(ctx, match); err != nil {
		return models.Match{}, s.storeError(ctx, "save match", err)
	}
	s.log.Info("identities revealed",
		zap.String("match_id", match.ID),
		zap.String("initiator", match.Initiator),
		zap.String("receiver", match.Receiver),
	)
	s.notifyMatch(models.EventMatchRevealed, match)
	return match, nil
}

// anonymousMatch loads a match that can still take part in the reveal handshake.
func (s *MatchService) anonymousMatch(ctx context.Context, matchID string) (models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Match{}, errInvalidMatch
	}
	if err != nil {
		return models.Match{}, err
	}
	if match.Mode != models.ModeAnonymous {
		return models.Match{}, errInvalidMatch
	}
	return match, nil
}

// getMatch passes store.ErrNotFound through untouched so callers can pick their own answer.
func (c *core) getMatch(ctx context.Context, matchID string) (models.Match, error) {
	match, err := c.store.GetMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Match{}, err
	}
	if err != nil {
		return models.Match{}, c.storeError(ctx, "get match", err)
	}
	return match, nil
}

func requireMatchAndEmail(matchID, email string) error {
	if matchID == "" || email == "" {
		return apierrors.Validation("matchId and email required")
	}
	return nil
}
