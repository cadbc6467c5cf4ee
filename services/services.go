package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	apierrors "nearby-server/utils/errors"
)

const DefaultMatchRadiusMeters = 500.0

// Notifier receives events addressed to a single user.
type Notifier interface {
	Notify(email string, event models.Event)
}

type Dependencies struct {
	Store             store.Store
	Logger            *zap.Logger
	Notifier          Notifier
	MatchRadiusMeters float64
	Now               func() time.Time
	NewID             func() string
}

// Services bundles the user, match and chat services. They share one lock, so every
// operation runs to completion before the next one starts, exactly as if requests
// were handled one at a time.
type Services struct {
	Users   *UserService
	Matches *MatchService
	Chat    *ChatService
}

type core struct {
	mu       *sync.Mutex
	store    store.Store
	log      *zap.Logger
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

func New(deps Dependencies) *Services {
	c := &core{
		mu:       &sync.Mutex{},
		store:    deps.Store,
		log:      deps.Logger,
		notifier: deps.Notifier,
		now:      deps.Now,
		newID:    deps.NewID,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}

	radius := deps.MatchRadiusMeters
	if radius <= 0 {
		radius = DefaultMatchRadiusMeters
	}

	matches := &MatchService{core: c, radiusMeters: radius}
	return &Services{
		Users:   &UserService{core: c, matches: matches},
		Matches: matches,
		Chat:    &ChatService{core: c},
	}
}

func (c *core) notify(event models.Event, emails ...string) {
	if c.notifier == nil {
		return
	}
	for _, email := range emails {
		c.notifier.Notify(email, event)
	}
}

func (c *core) notifyMatch(eventType string, match models.Match) {
	event := models.Event{Type: eventType, MatchID: match.ID, Match: &match}
	c.notify(event, match.Initiator, match.Receiver)
}

// storeError turns an unexpected store failure into a 500 and logs it.
func (c *core) storeError(ctx context.Context, op string, err error) error {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if ctx.Err() != nil {
		c.log.Warn("store call cancelled", zap.String("op", op), zap.Error(err))
	} else {
		c.log.Error("store call failed", zap.String("op", op), zap.Error(err))
	}
	return apierrors.Wrap(err, "STORE_ERROR", "Storage failure", http.StatusInternalServerError)
}

func (c *core) getUser(ctx context.Context, email string) (models.User, error) {
	user, err := c.store.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apierrors.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, c.storeError(ctx, "get user", err)
	}
	return user, nil
}
