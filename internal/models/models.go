package models

import "time"

// ComparisonMode is the server-declared voting protocol for a category.
type ComparisonMode string

const (
	SingleChoice    ComparisonMode = "single_choice"
	EloTournament   ComparisonMode = "elo_tournament"
	RankedList      ComparisonMode = "ranked_list"
	TournamentTiers ComparisonMode = "tournament_tiers"
)

// Valid reports whether the mode is one of the four known protocols.
func (m ComparisonMode) Valid() bool {
	switch m {
	case SingleChoice, EloTournament, RankedList, TournamentTiers:
		return true
	}
	return false
}

// Continuous reports whether the mode accepts repeated submissions with
// no terminal voted state. Only tier voting behaves this way: every tier
// click is its own upsert and any selection may be revised later.
func (m ComparisonMode) Continuous() bool {
	return m == TournamentTiers
}

// DefaultTierOptions are the tier labels used when a category does not
// configure its own. The last entry is the "don't know" bucket.
var DefaultTierOptions = []string{"X", "S+", "S", "A", "B", "C", "D"}

// Settings holds the mode-specific category configuration.
type Settings struct {
	TierOptions    []string       `json:"tier_options,omitempty"`
	Pages          int            `json:"pages,omitempty"`
	PrivateResults bool           `json:"private_results,omitempty"`
	Tournament     map[string]any `json:"tournament,omitempty"`
}

// Tiers returns the configured tier labels, falling back to the defaults.
func (s Settings) Tiers() []string {
	if len(s.TierOptions) > 0 {
		return s.TierOptions
	}
	return DefaultTierOptions
}

// PageCount returns the configured page count, at least 1.
func (s Settings) PageCount() int {
	if s.Pages > 1 {
		return s.Pages
	}
	return 1
}

// Item is a single votable entry within a category. Immutable client-side.
type Item struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	ImageURL  string         `json:"image_url,omitempty"`
	GroupName string         `json:"group_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Category is a voting category with its items. Loaded once per vote
// session and never mutated client-side.
type Category struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	ComparisonMode ComparisonMode `json:"comparison_mode"`
	IsActive       bool           `json:"is_active"`
	Settings       Settings       `json:"settings"`
	Items          []Item         `json:"items"`
}

// VoteStatus reports whether a (category, fingerprint) pair has voted.
type VoteStatus struct {
	HasVoted bool       `json:"has_voted"`
	VoteID   *int       `json:"vote_id,omitempty"`
	VotedAt  *time.Time `json:"voted_at,omitempty"`
}

// VoteResultRow is one item's result entry. It is a superset across all
// comparison modes; consumers read only the fields their mode defines and
// must tolerate absence of the rest.
type VoteResultRow struct {
	ItemID      int            `json:"item_id"`
	ItemName    string         `json:"item_name"`
	ImageURL    string         `json:"image_url,omitempty"`
	VoteCount   int            `json:"vote_count"`
	Percentage  float64        `json:"percentage"`
	WilsonLower *float64       `json:"wilson_lower,omitempty"`
	WilsonUpper *float64       `json:"wilson_upper,omitempty"`
	EloRating   *float64       `json:"elo_rating,omitempty"`
	GamesPlayed *int           `json:"games_played,omitempty"`
	AverageRank *float64       `json:"average_rank,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// WSMessage is the envelope for live result updates pushed by the server.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
