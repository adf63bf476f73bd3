package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	redisclient "recycle-bot/pkg/redis"
)

// Storage keeps dialogue state per chat.
type Storage struct {
	client *redisclient.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps client. ttl of zero keeps states until they are dropped.
func New(client *redisclient.Client, ttl time.Duration, logger *zap.Logger) *Storage {
	return &Storage{client: client, ttl: ttl, logger: logger}
}

func (s *Storage) SetUserDialogState(ctx context.Context, chatID int64, state *UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return s.client.Set(ctx, buildStateKey(chatID), data, s.ttl)
}

// GetUserDialogState returns the stored state, or an idle one when none exists.
// A state that no longer decodes is dropped and reported as idle.
func (s *Storage) GetUserDialogState(ctx context.Context, chatID int64) (*UserState, error) {
	data, err := s.client.Get(ctx, buildStateKey(chatID))
	if errors.Is(err, redisclient.ErrNotFound) {
		return &UserState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	var state UserState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Dropping undecodable dialog state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		if err := s.DropUserDialogState(ctx, chatID); err != nil {
			return nil, err
		}
		return &UserState{}, nil
	}
	return &state, nil
}

func (s *Storage) DropUserDialogState(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, buildStateKey(chatID)); err != nil {
		return fmt.Errorf("drop state: %w", err)
	}
	return nil
}

func buildStateKey(chatID int64) string {
	return fmt.Sprintf("state:%d", chatID)
}
