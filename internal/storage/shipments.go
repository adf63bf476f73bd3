package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"recycle-bot/internal/model"
)

// CommitShipment stores the shipment with its items and empties the point's bags.
func (s *PostgresStorage) CommitShipment(ctx context.Context, sh model.Shipment) (*model.Shipment, error) {
	const operation = "storage.CommitShipment"

	out := sh
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE points SET bags_count = 0 WHERE id = $1`, sh.PointID)
		if err != nil {
			return fmt.Errorf("reset bags: %w", err)
		}
		if !affected(res) {
			return ErrPointNotFound
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO shipments (point_id, user_id, total_weight, total_pay)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			sh.PointID, sh.UserID, sh.TotalWeight, sh.TotalPay).Scan(&out.ID, &out.CreatedAt)
		if pqCode(err) == pqForeignKeyViolation {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("insert shipment: %w", err)
		}

		out.Items = make([]model.ShipmentItem, len(sh.Items))
		for i, it := range sh.Items {
			it.ShipmentID = out.ID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO shipment_items (shipment_id, material, weight_kg, price, total)
				VALUES ($1, $2, $3, $4, $5)`,
				it.ShipmentID, it.Material, it.WeightKg, it.Price, it.Total); err != nil {
				return fmt.Errorf("insert item %s: %w", it.Material, err)
			}
			out.Items[i] = it
		}
		return nil
	})
	if errors.Is(err, ErrPointNotFound) || errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("Shipment committed",
		zap.Int64("shipment_id", out.ID),
		zap.Int64("point_id", out.PointID),
		zap.String("total_weight", out.TotalWeight.String()),
		zap.String("total_pay", out.TotalPay.String()))
	return &out, nil
}

// ListShipments returns all shipments with their items in creation order.
func (s *PostgresStorage) ListShipments(ctx context.Context) ([]model.Shipment, error) {
	const operation = "storage.ListShipments"

	var shipments []model.Shipment
	if err := s.db.SelectContext(ctx, &shipments, `
		SELECT id, point_id, user_id, total_weight, total_pay, created_at
		FROM shipments ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if len(shipments) == 0 {
		return shipments, nil
	}

	ids := make([]int64, len(shipments))
	index := make(map[int64]int, len(shipments))
	for i, sh := range shipments {
		ids[i] = sh.ID
		index[sh.ID] = i
	}

	var items []model.ShipmentItem
	if err := s.db.SelectContext(ctx, &items, `
		SELECT shipment_id, material, weight_kg, price, total
		FROM shipment_items WHERE shipment_id = ANY($1)
		ORDER BY shipment_id, material`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("%s: items: %w", operation, err)
	}
	for _, it := range items {
		i := index[it.ShipmentID]
		shipments[i].Items = append(shipments[i].Items, it)
	}
	return shipments, nil
}
