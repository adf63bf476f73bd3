package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize stays under Telegram's 4096 character message limit.
const DefaultChunkSize = 4000

func FormatZones(zones []ZoneStat) []string {
	lines := make([]string, 0, len(zones))
	for _, z := range zones {
		lines = append(lines, fmt.Sprintf("Зона %d: точек %d, мешков %d", z.ZoneID, z.Points, z.Bags))
	}
	return lines
}

func FormatRegions(regions []RegionStat) []string {
	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		lines = append(lines, fmt.Sprintf("Регион %d: зон %d, точек %d, мешков %d", r.RegionID, r.Zones, r.Points, r.Bags))
	}
	return lines
}

func FormatRegionDetail(d Detail) []string {
	lines := make([]string, 0, len(d.Zones)+1)
	for _, z := range d.Zones {
		lines = append(lines, fmt.Sprintf("Зона %d: точек %d, мешков %d", z.ZoneID, z.Points, z.Bags))
	}
	lines = append(lines, fmt.Sprintf("Итого по региону %d: точек %d, мешков %d", d.RegionID, d.Points, d.Bags))
	return lines
}

// Chunk packs a header and lines into messages of at most limit characters.
// A line is never split; a line longer than limit is sent on its own.
func Chunk(header string, lines []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkSize
	}

	var (
		out []string
		b   strings.Builder
		n   int
	)
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
			n = 0
		}
	}
	write := func(s string) {
		size := utf8.RuneCountInString(s)
		if n > 0 && n+1+size > limit {
			flush()
		}
		if n > 0 {
			b.WriteByte('\n')
			n++
		}
		b.WriteString(s)
		n += size
	}

	if header != "" {
		write(header)
	}
	for _, l := range lines {
		write(l)
	}
	flush()
	return out
}
