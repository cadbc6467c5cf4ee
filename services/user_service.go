package services

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	apierrors "nearby-server/utils/errors"
	"nearby-server/utils/geo"
)

type UserService struct {
	*core
	matches *MatchService
}

var errProfileHidden = apierrors.NewAPIError(
	"PROFILE_NOT_ACCESSIBLE",
	"This user is anonymous. Reveal identities first.",
	http.StatusForbidden,
)

// UpdateProfile overwrites only the provided fields and recomputes profile completion.
func (s *UserService) UpdateProfile(ctx context.Context, email string, update models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	update.Apply(&user)
	if err := s.store.SaveUser(ctx, user); err != nil {
		return models.User{}, s.storeError(ctx, "save user", err)
	}
	return user, nil
}

// Activate marks the user present at a location in the given mode and runs the
// match scan for them.
func (s *UserService) Activate(ctx context.Context, email string, mode models.Mode, lat, lon *float64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if !mode.Valid() {
		return models.User{}, apierrors.Validation("Mode must be anonymous or visible")
	}
	if lat == nil || lon == nil {
		return models.User{}, apierrors.Validation("Latitude and longitude required")
	}
	if !geo.ValidCoordinates(*lat, *lon) {
		return models.User{}, apierrors.Validation("Invalid coordinates")
	}

	user.IsActive = true
	user.Mode = mode
	user.Location = &models.Location{Latitude: *lat, Longitude: *lon}
	user.AnonymousStartedAt = nil
	if mode == models.ModeAnonymous {
		now := s.now()
		user.AnonymousStartedAt = &now
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return models.User{}, s.storeError(ctx, "save user", err)
	}
	s.log.Info("user activated",
		zap.String("email", email),
		zap.String("mode", string(mode)),
		zap.Float64("latitude", *lat),
		zap.Float64("longitude", *lon),
	)

	if err := s.matches.scan(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Deactivate clears presence. The last location is kept but ignored while inactive.
func (s *UserService) Deactivate(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	user.IsActive = false
	user.Mode = models.ModeNone
	user.AnonymousStartedAt = nil
	if err := s.store.SaveUser(ctx, user); err != nil {
		return models.User{}, s.storeError(ctx, "save user", err)
	}
	s.log.Info("user deactivated", zap.String("email", email))
	return user, nil
}

// GetProfile returns the public profile of email as seen by requestingUser.
// An active anonymous user is only visible to someone they share a revealed match with.
func (s *UserService) GetProfile(ctx context.Context, email, requestingUser string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.getUser(ctx, email)
	if err != nil {
		return models.Profile{}, err
	}

	if user.IsActive && user.Mode == models.ModeAnonymous && requestingUser != "" {
		match, err := s.store.FindMatchByPair(ctx, email, requestingUser)
		if errors.Is(err, store.ErrNotFound) {
			return models.Profile{}, errProfileHidden
		}
		if err != nil {
			return models.Profile{}, s.storeError(ctx, "find match by pair", err)
		}
		if !match.Revealed {
			return models.Profile{}, errProfileHidden
		}
	}

	return user.Profile(), nil
}
