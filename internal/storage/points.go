package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"recycle-bot/internal/model"
	"recycle-bot/internal/points"
)

const pointColumns = `id, name, owner_name, phone, address, bags_count, zone_id, created_at`

// PointCreation reports what CreatePoint inserted.
type PointCreation struct {
	Point         model.Point
	RegionCreated bool
	ZoneCreated   bool
}

// PointDeletion reports what DeletePoint removed.
type PointDeletion struct {
	UserRemoved         bool
	ShipmentsReassigned int64
	RequestsDeleted     int64
}

func (s *PostgresStorage) GetPoint(ctx context.Context, id int64) (*model.Point, error) {
	const operation = "storage.GetPoint"

	var p model.Point
	err := s.db.GetContext(ctx, &p, `SELECT `+pointColumns+` FROM points WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &p, nil
}

func (s *PostgresStorage) PointExists(ctx context.Context, id int64) (bool, error) {
	const operation = "storage.PointExists"

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM points WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("%s: %w", operation, err)
	}
	return exists, nil
}

// ListPoints returns every point ordered by zone and id.
func (s *PostgresStorage) ListPoints(ctx context.Context) ([]model.Point, error) {
	const operation = "storage.ListPoints"

	var out []model.Point
	if err := s.db.SelectContext(ctx, &out, `SELECT `+pointColumns+` FROM points ORDER BY zone_id, id`); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// CreatePoint inserts the point with its region and zone, creating them when missing.
func (s *PostgresStorage) CreatePoint(ctx context.Context, code points.Code, d points.Draft) (*PointCreation, error) {
	const operation = "storage.CreatePoint"

	var out PointCreation
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO regions (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			code.Region, fmt.Sprintf("Регион %d", code.Region))
		if err != nil {
			return fmt.Errorf("insert region: %w", err)
		}
		out.RegionCreated = affected(res)

		res, err = tx.ExecContext(ctx,
			`INSERT INTO zones (id, region_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			code.ZoneID, code.Region, fmt.Sprintf("Зона %d", code.ZoneID))
		if err != nil {
			return fmt.Errorf("insert zone: %w", err)
		}
		out.ZoneCreated = affected(res)

		err = tx.GetContext(ctx, &out.Point, `
			INSERT INTO points (id, name, owner_name, phone, address, bags_count, zone_id)
			VALUES ($1, $2, $3, $4, $5, 0, $6)
			RETURNING `+pointColumns,
			code.ID, d.Name, d.OwnerName, d.Phone, d.Address, code.ZoneID)
		if pqCode(err) == pqUniqueViolation {
			return ErrPointExists
		}
		if err != nil {
			return fmt.Errorf("insert point: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrPointExists) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Point created",
		zap.Int64("point_id", out.Point.ID),
		zap.Int64("zone_id", out.Point.ZoneID),
		zap.Bool("region_created", out.RegionCreated),
		zap.Bool("zone_created", out.ZoneCreated))
	return &out, nil
}

// DeletePoint removes the point, its requests and its bound user. The user's
// shipments are moved to the system user so the history survives.
func (s *PostgresStorage) DeletePoint(ctx context.Context, id int64) (*PointDeletion, error) {
	const operation = "storage.DeletePoint"

	var out PointDeletion
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		err := tx.GetContext(ctx, &locked, `SELECT id FROM points WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPointNotFound
		}
		if err != nil {
			return fmt.Errorf("lock point: %w", err)
		}

		var userID int64
		err = tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE point_id = $1`, id)
		hasUser := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find point user: %w", err)
		}

		if hasUser {
			systemID, err := ensureSystemUser(ctx, tx)
			if err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE shipments SET user_id = $1 WHERE user_id = $2`, systemID, userID)
			if err != nil {
				return fmt.Errorf("reassign shipments: %w", err)
			}
			out.ShipmentsReassigned, _ = res.RowsAffected()

			// requests the user filed for points other than this one are kept
			if _, err := tx.ExecContext(ctx,
				`UPDATE requests SET user_id = $1 WHERE user_id = $2 AND point_id <> $3`,
				systemID, userID, id); err != nil {
				return fmt.Errorf("reassign requests: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE point_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete requests: %w", err)
		}
		out.RequestsDeleted, _ = res.RowsAffected()

		if hasUser {
			if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			out.UserRemoved = true
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete point: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrPointNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Point deleted",
		zap.Int64("point_id", id),
		zap.Bool("user_removed", out.UserRemoved),
		zap.Int64("shipments_reassigned", out.ShipmentsReassigned),
		zap.Int64("requests_deleted", out.RequestsDeleted))
	return &out, nil
}

// SetBagsCount overwrites the number of bags waiting at the point.
func (s *PostgresStorage) SetBagsCount(ctx context.Context, pointID int64, bags int) error {
	const operation = "storage.SetBagsCount"

	res, err := s.db.ExecContext(ctx, `UPDATE points SET bags_count = $1 WHERE id = $2`, bags, pointID)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if !affected(res) {
		return ErrPointNotFound
	}
	return nil
}

func ensureSystemUser(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO users (telegram_id, role) VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id`, model.SentinelTelegramID, model.RoleSystem)
	if err != nil {
		return 0, fmt.Errorf("ensure system user: %w", err)
	}
	return id, nil
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
