package vote

import (
	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// Tiers partitions the shuffled item list into contiguous pages and records
// one tier index per item. Every selection is saved individually through an
// upsert; there is no terminal submitted state and any selection may be
// revised later. Page navigation is pure view state.
type Tiers struct {
	items      []models.Item
	labels     []string
	pages      int
	pageSize   int
	page       int
	selections map[int]int
	members    map[int]bool
}

// NewTiers creates a tiering strategy from the category's tier settings
func NewTiers(items []models.Item, settings models.Settings) *Tiers {
	pages := settings.PageCount()
	if pages > len(items) && len(items) > 0 {
		pages = len(items)
	}

	pageSize := 0
	if len(items) > 0 {
		pageSize = (len(items) + pages - 1) / pages
	}

	members := make(map[int]bool, len(items))
	for _, item := range items {
		members[item.ID] = true
	}

	return &Tiers{
		items:      items,
		labels:     settings.Tiers(),
		pages:      pages,
		pageSize:   pageSize,
		selections: make(map[int]int),
		members:    members,
	}
}

// Mode returns the comparison mode this strategy implements
func (t *Tiers) Mode() models.ComparisonMode {
	return models.TournamentTiers
}

// Items returns all items across all pages
func (t *Tiers) Items() []models.Item {
	return t.items
}

// Labels returns the tier label set
func (t *Tiers) Labels() []string {
	return t.labels
}

// Pages returns the number of pages
func (t *Tiers) Pages() int {
	return t.pages
}

// Page returns the current page index
func (t *Tiers) Page() int {
	return t.page
}

// SetPage changes the current page. This is a local view-state change only;
// it never resubmits anything.
func (t *Tiers) SetPage(page int) error {
	if page < 0 || page >= t.pages {
		return errors.Validationf("page %d out of range (0-%d)", page, t.pages-1)
	}
	t.page = page
	return nil
}

// PageItems returns the contiguous item chunk for a page. The last page may
// be shorter than the rest.
func (t *Tiers) PageItems(page int) []models.Item {
	if page < 0 || page >= t.pages || t.pageSize == 0 {
		return nil
	}
	start := page * t.pageSize
	if start >= len(t.items) {
		return nil
	}
	end := start + t.pageSize
	if end > len(t.items) {
		end = len(t.items)
	}
	return t.items[start:end]
}

// SetTier records the tier index for an item (optimistic local update)
func (t *Tiers) SetTier(itemID, tierIndex int) error {
	if !t.members[itemID] {
		return errors.Validationf("item %d is not part of this category", itemID)
	}
	if tierIndex < 0 || tierIndex >= len(t.labels) {
		return errors.Validationf("invalid tier index: %d", tierIndex)
	}
	t.selections[itemID] = tierIndex
	return nil
}

// Tier returns the tier index recorded for an item, if any
func (t *Tiers) Tier(itemID int) (int, bool) {
	tier, ok := t.selections[itemID]
	return tier, ok
}

// Restore seeds selections from a journal, skipping entries for unknown
// items or out-of-range tiers.
func (t *Tiers) Restore(selections map[int]int) {
	for itemID, tier := range selections {
		if t.members[itemID] && tier >= 0 && tier < len(t.labels) {
			t.selections[itemID] = tier
		}
	}
}

// Payload returns the full tier ballot flattened to [item, tier, ...] pairs
// in item order. Individual upserts send a single pair instead; this form
// exists for the one-shot vote endpoint, which accepts complete tier ballots.
func (t *Tiers) Payload() ([]int, error) {
	if len(t.selections) == 0 {
		return nil, ErrNoTierSelections
	}
	pairs := make([]int, 0, 2*len(t.selections))
	for _, item := range t.items {
		if tier, ok := t.selections[item.ID]; ok {
			pairs = append(pairs, item.ID, tier)
		}
	}
	return pairs, nil
}

var _ Strategy = (*Tiers)(nil)
