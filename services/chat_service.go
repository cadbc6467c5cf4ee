package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nearby-server/models"
	"nearby-server/store"
	apierrors "nearby-server/utils/errors"
)

type ChatService struct {
	*core
}

var errChatNotAllowed = apierrors.Forbidden("Chat not allowed")

// Send appends a message to an accepted match's transcript.
func (s *ChatService) Send(ctx context.Context, matchID, sender, text string) (models.Message, error) {
	if matchID == "" || sender == "" || text == "" {
		return models.Message{}, apierrors.Validation("matchId, sender and text required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Message{}, errChatNotAllowed
	}
	if err != nil {
		return models.Message{}, err
	}
	if match.Status != models.MatchStatusAccepted {
		return models.Message{}, errChatNotAllowed
	}

	msg := models.Message{Sender: sender, Text: text, CreatedAt: s.now()}
	if err := s.store.AppendMessage(ctx, matchID, msg); err != nil {
		return models.Message{}, s.storeError(ctx, "append message", err)
	}
	s.log.Debug("message sent", zap.String("match_id", matchID), zap.String("sender", sender))

	event := models.Event{Type: models.EventMessageCreated, MatchID: matchID, Message: &msg}
	s.notify(event, match.Initiator, match.Receiver)
	return msg, nil
}

// Messages returns the transcript of a match, oldest first.
func (s *ChatService) Messages(ctx context.Context, matchID string) ([]models.Message, error) {
	if matchID == "" {
		return nil, apierrors.Validation("matchId required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.store.ListMessages(ctx, matchID)
	if err != nil {
		return nil, s.storeError(ctx, "list messages", err)
	}
	return messages, nil
}
