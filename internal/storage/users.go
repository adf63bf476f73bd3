package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"recycle-bot/internal/model"
)

const userColumns = `id, telegram_id, role, point_id, created_at`

// EnsureUser returns the user for telegramID, creating it on first contact.
func (s *PostgresStorage) EnsureUser(ctx context.Context, telegramID int64) (*model.User, error) {
	const operation = "storage.EnsureUser"

	query := `
		INSERT INTO users (telegram_id, role)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET telegram_id = EXCLUDED.telegram_id
		RETURNING ` + userColumns

	var user model.User
	if err := s.db.GetContext(ctx, &user, query, telegramID, model.RoleUser); err != nil {
		s.logger.Error("Failed to ensure user",
			zap.String("operation", operation),
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &user, nil
}

func (s *PostgresStorage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	const operation = "storage.GetUserByTelegramID"

	var user model.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &user, nil
}

// GetPointUser returns the user bound to pointID.
func (s *PostgresStorage) GetPointUser(ctx context.Context, pointID int64) (*model.User, error) {
	const operation = "storage.GetPointUser"

	var user model.User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE point_id = $1`, pointID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &user, nil
}

// BindPointToUser attaches pointID to the user. A point serves at most one user.
func (s *PostgresStorage) BindPointToUser(ctx context.Context, telegramID, pointID int64) error {
	const operation = "storage.BindPointToUser"

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET point_id = $1
		WHERE telegram_id = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM users other
		      WHERE other.point_id = $1 AND other.telegram_id <> $2
		  )`, pointID, telegramID)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return ErrPointTaken
		case pqForeignKeyViolation:
			return ErrPointNotFound
		}
		return fmt.Errorf("%s: %w", operation, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if affected > 0 {
		s.logger.Info("Point bound to user",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("point_id", pointID))
		return nil
	}

	if _, err := s.GetUserByTelegramID(ctx, telegramID); err != nil {
		return err
	}
	return ErrPointTaken
}
