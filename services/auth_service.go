package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	apierrors "nearby-server/utils/errors"
)

// Login returns the user for email, creating an empty inactive one on first sight.
// The email is the only identity; there is no credential check.
func (s *UserService) Login(ctx context.Context, email string) (models.User, error) {
	if email == "" {
		return models.User{}, apierrors.Validation("Email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.store.GetUser(ctx, email)
	if err == nil {
		s.log.Info("login", zap.String("email", email), zap.Bool("created", false))
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, s.storeError(ctx, "get user", err)
	}

	user = models.NewUser(s.newID(), email, s.now())
	if err := s.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrExists) {
			return models.User{}, s.storeError(ctx, "create user", err)
		}
		// Another process sharing the backend created it first.
		return s.getUser(ctx, email)
	}

	s.log.Info("login", zap.String("email", email), zap.Bool("created", true))
	return user, nil
}
