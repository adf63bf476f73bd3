package report

import (
	"fmt"
	"sort"

	"recycle-bot/internal/model"
)

// sortPoints orders points by zone, then by id.
func sortPoints(points []model.Point) []model.Point {
	out := append([]model.Point(nil), points...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZoneID != out[j].ZoneID {
			return out[i].ZoneID < out[j].ZoneID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FormatPoints lists every point under its zone heading.
func FormatPoints(points []model.Point) []string {
	var (
		lines []string
		zone  int64 = -1
	)
	for _, p := range sortPoints(points) {
		if p.ZoneID != zone {
			zone = p.ZoneID
			lines = append(lines, fmt.Sprintf("Зона %d:", zone))
		}
		lines = append(lines, fmt.Sprintf("  %04d «%s», %s, мешков %d", p.ID, p.Name, p.Address, p.BagsCount))
	}
	return lines
}

// Route picks the points with bags waiting, ordered for a zone-by-zone pickup.
func Route(points []model.Point) []model.Point {
	var out []model.Point
	for _, p := range sortPoints(points) {
		if p.BagsCount > 0 {
			out = append(out, p)
		}
	}
	return out
}

func FormatRoute(route []model.Point) []string {
	lines := make([]string, 0, len(route)+1)
	total := 0
	for _, p := range route {
		lines = append(lines, fmt.Sprintf("Точка %04d: %s, мешков %d", p.ID, p.Address, p.BagsCount))
		total += p.BagsCount
	}
	lines = append(lines, fmt.Sprintf("Всего: точек %d, мешков %d", len(route), total))
	return lines
}
