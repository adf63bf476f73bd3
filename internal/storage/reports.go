package storage

import (
	"context"
	"fmt"

	"recycle-bot/internal/model"
	"recycle-bot/internal/report"
)

func (s *PostgresStorage) ListRegions(ctx context.Context) ([]model.Region, error) {
	const operation = "storage.ListRegions"

	var out []model.Region
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name FROM regions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// ZoneStats counts points and sums waiting bags per zone. Zones whose points
// were all deleted are still reported, with zeros.
func (s *PostgresStorage) ZoneStats(ctx context.Context) ([]report.ZoneStat, error) {
	const operation = "storage.ZoneStats"

	var out []report.ZoneStat
	if err := s.db.SelectContext(ctx, &out, `
		SELECT z.id AS zone_id, z.region_id, COUNT(p.id) AS points, COALESCE(SUM(p.bags_count), 0) AS bags
		FROM zones z
		LEFT JOIN points p ON p.zone_id = z.id
		GROUP BY z.id, z.region_id
		ORDER BY z.id`); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}
