// Package report turns live point, request and shipment data into operator reports.
package report

import (
	"errors"
	"sort"

	"recycle-bot/internal/model"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrRegionEmpty    = errors.New("region has no zones with points")
)

// ZoneStat is the per-zone point count and bag sum.
type ZoneStat struct {
	ZoneID   int64 `db:"zone_id"`
	RegionID int64 `db:"region_id"`
	Points   int   `db:"points"`
	Bags     int   `db:"bags"`
}

// RegionStat rolls zone stats up to a region.
type RegionStat struct {
	RegionID int64
	Zones    int
	Points   int
	Bags     int
}

// Detail is the drill-down of one region.
type Detail struct {
	RegionID int64
	Zones    []ZoneStat
	Points   int
	Bags     int
}

// RollupRegions aggregates zones into their regions. Every zone counts towards
// the region's zone total, empty ones included. Regions without zones are
// reported with zeros.
func RollupRegions(regions []model.Region, zones []ZoneStat) []RegionStat {
	byID := make(map[int64]*RegionStat, len(regions))
	for _, r := range regions {
		byID[r.ID] = &RegionStat{RegionID: r.ID}
	}
	for _, z := range zones {
		rs, ok := byID[z.RegionID]
		if !ok {
			rs = &RegionStat{RegionID: z.RegionID}
			byID[z.RegionID] = rs
		}
		rs.Zones++
		rs.Points += z.Points
		rs.Bags += z.Bags
	}

	out := make([]RegionStat, 0, len(byID))
	for _, rs := range byID {
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionID < out[j].RegionID })
	return out
}

// RegionDetail lists the zones of a region that have points.
func RegionDetail(regionID int64, regions []model.Region, zones []ZoneStat) (Detail, error) {
	found := false
	for _, r := range regions {
		if r.ID == regionID {
			found = true
			break
		}
	}
	if !found {
		return Detail{}, ErrRegionNotFound
	}

	d := Detail{RegionID: regionID}
	for _, z := range zones {
		if z.RegionID != regionID || z.Points == 0 {
			continue
		}
		d.Zones = append(d.Zones, z)
		d.Points += z.Points
		d.Bags += z.Bags
	}
	if len(d.Zones) == 0 {
		return Detail{}, ErrRegionEmpty
	}
	sort.Slice(d.Zones, func(i, j int) bool { return d.Zones[i].ZoneID < d.Zones[j].ZoneID })
	return d, nil
}
