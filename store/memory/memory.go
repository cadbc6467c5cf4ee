package memory

import (
	"context"
	"slices"
	"sync"

	"nearby-server/models"
	"nearby-server/store"
)

// Store keeps all state in process memory. Nothing survives a restart.
type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	userOrder []string

	matches    map[string]models.Match
	matchOrder []string
	pairs      map[string]string

	messages map[string][]models.Message
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		matches:  make(map[string]models.Match),
		pairs:    make(map[string]string),
		messages: make(map[string][]models.Message),
	}
}

func (s *Store) GetUser(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Email]; ok {
		return store.ErrExists
	}
	s.users[user.Email] = cloneUser(user)
	s.userOrder = append(s.userOrder, user.Email)
	return nil
}

func (s *Store) SaveUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Email]; !ok {
		return store.ErrNotFound
	}
	s.users[user.Email] = cloneUser(user)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.userOrder))
	for _, email := range s.userOrder {
		users = append(users, cloneUser(s.users[email]))
	}
	return users, nil
}

func (s *Store) GetMatch(_ context.Context, id string) (models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, ok := s.matches[id]
	if !ok {
		return models.Match{}, store.ErrNotFound
	}
	return cloneMatch(match), nil
}

func (s *Store) CreateMatch(_ context.Context, match models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := match.PairKey()
	if _, ok := s.pairs[key]; ok {
		return store.ErrExists
	}
	if _, ok := s.matches[match.ID]; ok {
		return store.ErrExists
	}
	s.matches[match.ID] = cloneMatch(match)
	s.matchOrder = append(s.matchOrder, match.ID)
	s.pairs[key] = match.ID
	return nil
}

func (s *Store) SaveMatch(_ context.Context, match models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; !ok {
		return store.ErrNotFound
	}
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *Store) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.matches, id)
	delete(s.pairs, match.PairKey())
	s.matchOrder = slices.DeleteFunc(s.matchOrder, func(v string) bool { return v == id })
	return nil
}

func (s *Store) FindMatchByPair(_ context.Context, a, b string) (models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[models.PairKey(a, b)]
	if !ok {
		return models.Match{}, store.ErrNotFound
	}
	return cloneMatch(s.matches[id]), nil
}

func (s *Store) ListMatchesForUser(_ context.Context, email string) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.Match, 0)
	for _, id := range s.matchOrder {
		if match := s.matches[id]; match.HasUser(email) {
			matches = append(matches, cloneMatch(match))
		}
	}
	return matches, nil
}

func (s *Store) AppendMessage(_ context.Context, matchID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[matchID] = append(s.messages[matchID], msg)
	return nil
}

func (s *Store) ListMessages(_ context.Context, matchID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcript := s.messages[matchID]
	out := make([]models.Message, len(transcript))
	copy(out, transcript)
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

func cloneUser(u models.User) models.User {
	u.Interests = slices.Clone(u.Interests)
	if u.Interests == nil {
		u.Interests = []string{}
	}
	if u.Location != nil {
		loc := *u.Location
		u.Location = &loc
	}
	if u.AnonymousStartedAt != nil {
		at := *u.AnonymousStartedAt
		u.AnonymousStartedAt = &at
	}
	return u
}

func cloneMatch(m models.Match) models.Match {
	if m.RevealRequestedBy != nil {
		by := *m.RevealRequestedBy
		m.RevealRequestedBy = &by
	}
	return m
}
