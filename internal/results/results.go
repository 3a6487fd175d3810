// Package results maps a comparison mode to a result-rendering strategy
// over the common result-row shape. Each renderer reads only the numeric
// fields its mode defines and tolerates absence of the rest.
package results

import (
	"sort"

	"github.com/abrezinsky/pollbooth/internal/models"
)

// defaultEloRating is assumed for rows that carry no rating.
const defaultEloRating = 1500.0

// Row is one rendered result line. BarPercent is the normalized visual
// width in [0, 100]; the raw numbers stay available alongside it.
type Row struct {
	ItemID      int
	Name        string
	ImageURL    string
	VoteCount   int
	Percentage  float64
	BarPercent  float64
	WilsonLower *float64
	WilsonUpper *float64
	EloRating   float64
	GamesPlayed int
	AverageRank *float64
	Metadata    map[string]any
}

// Renderer turns result rows into rendered rows, applying its mode's
// sorting and normalization.
type Renderer interface {
	Render(rows []models.VoteResultRow) []Row
}

// RendererFor returns the renderer for a comparison mode. Unrecognized
// modes fall back to the percentage view.
func RendererFor(mode models.ComparisonMode) Renderer {
	switch mode {
	case models.EloTournament:
		return Leaderboard{}
	case models.SingleChoice:
		return Confidence{}
	default:
		return Percentage{}
	}
}

// baseRow copies the shared display fields
func baseRow(r models.VoteResultRow) Row {
	row := Row{
		ItemID:      r.ItemID,
		Name:        r.ItemName,
		ImageURL:    r.ImageURL,
		VoteCount:   r.VoteCount,
		Percentage:  r.Percentage,
		WilsonLower: r.WilsonLower,
		WilsonUpper: r.WilsonUpper,
		AverageRank: r.AverageRank,
		Metadata:    r.Metadata,
		EloRating:   defaultEloRating,
	}
	if r.EloRating != nil {
		row.EloRating = *r.EloRating
	}
	if r.GamesPlayed != nil {
		row.GamesPlayed = *r.GamesPlayed
	}
	return row
}

// Percentage renders percentage bars in server-supplied order, with bar
// widths normalized against the maximum percentage in the set.
type Percentage struct{}

// Render keeps the server's order and normalizes bar widths. The
// denominator is floored at 1 so an all-zero set never divides by zero.
func (Percentage) Render(rows []models.VoteResultRow) []Row {
	maxPct := 1.0
	for _, r := range rows {
		if r.Percentage > maxPct {
			maxPct = r.Percentage
		}
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		row := baseRow(r)
		row.BarPercent = r.Percentage / maxPct * 100
		out[i] = row
	}
	return out
}

// Confidence renders confidence-interval bars sorted descending by the
// lower confidence bound, a stricter ranking than raw percentage. Rows
// without bounds render their bar with no interval overlay.
type Confidence struct{}

func (Confidence) Render(rows []models.VoteResultRow) []Row {
	sorted := make([]models.VoteResultRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lowerBound(sorted[i]) > lowerBound(sorted[j])
	})

	maxPct := 1.0
	for _, r := range sorted {
		if r.Percentage > maxPct {
			maxPct = r.Percentage
		}
	}

	out := make([]Row, len(sorted))
	for i, r := range sorted {
		row := baseRow(r)
		row.BarPercent = r.Percentage / maxPct * 100
		out[i] = row
	}
	return out
}

// lowerBound treats a missing wilson_lower as zero for ordering
func lowerBound(r models.VoteResultRow) float64 {
	if r.WilsonLower == nil {
		return 0
	}
	return *r.WilsonLower
}

// Leaderboard renders a rating leaderboard sorted descending by rating,
// with the visual indicator normalized against the observed rating range.
type Leaderboard struct{}

func (Leaderboard) Render(rows []models.VoteResultRow) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = baseRow(r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EloRating > out[j].EloRating
	})

	if len(out) == 0 {
		return out
	}

	minRating, maxRating := out[len(out)-1].EloRating, out[0].EloRating
	span := maxRating - minRating
	if span < 1 {
		// Range floor avoids division by zero when all ratings match
		span = 1
	}
	for i := range out {
		out[i].BarPercent = (out[i].EloRating - minRating) / span * 100
	}
	return out
}
