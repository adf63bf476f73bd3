package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"recycle-bot/internal/model"
)

const requestColumns = `id, point_id, user_id, activity, aluminum_bags, pet_bags, glass_bags, other_bags, question, created_at`

func insertRequest(ctx context.Context, q sqlx.QueryerContext, r model.Request) (*model.Request, error) {
	var out model.Request
	err := sqlx.GetContext(ctx, q, &out, `
		INSERT INTO requests (point_id, user_id, activity, aluminum_bags, pet_bags, glass_bags, other_bags, question)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+requestColumns,
		r.PointID, r.UserID, r.Activity, r.Aluminum, r.PET, r.Glass, r.Other, r.Question)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStorage) AddRequest(ctx context.Context, r model.Request) (*model.Request, error) {
	const operation = "storage.AddRequest"

	out, err := insertRequest(ctx, s.db, r)
	if pqCode(err) == pqForeignKeyViolation {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// AddBagFullRequest records the request and sets the point's bag count to its total.
func (s *PostgresStorage) AddBagFullRequest(ctx context.Context, r model.Request) (*model.Request, error) {
	const operation = "storage.AddBagFullRequest"

	r.Activity = model.ActivityBagFull
	var out *model.Request
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if out, err = insertRequest(ctx, tx, r); err != nil {
			if pqCode(err) == pqForeignKeyViolation {
				return ErrPointNotFound
			}
			return fmt.Errorf("insert request: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE points SET bags_count = $1 WHERE id = $2`, r.TotalBags(), r.PointID)
		if err != nil {
			return fmt.Errorf("update bags: %w", err)
		}
		if !affected(res) {
			return ErrPointNotFound
		}
		return nil
	})
	if errors.Is(err, ErrPointNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Bag report saved",
		zap.Int64("point_id", r.PointID),
		zap.Int("bags", r.TotalBags()))
	return out, nil
}

// ListRequests returns all requests in creation order.
func (s *PostgresStorage) ListRequests(ctx context.Context) ([]model.Request, error) {
	const operation = "storage.ListRequests"

	var out []model.Request
	if err := s.db.SelectContext(ctx, &out,
		`SELECT `+requestColumns+` FROM requests ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}
