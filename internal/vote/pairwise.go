package vote

import (
	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// Pairwise presents the first two elements of the pre-shuffled item list as
// the current matchup. The list is shuffled once per category load by the
// controller, so successive renders keep the same matchup; the matchup only
// changes when the item list itself is refreshed.
type Pairwise struct {
	items     []models.Item
	winner    int
	hasWinner bool
}

// NewPairwise creates a pairwise-comparison strategy. It fails when fewer
// than two items are available; callers render an insufficient-data state
// and must not offer submission.
func NewPairwise(items []models.Item) (*Pairwise, error) {
	if len(items) < 2 {
		return nil, ErrInsufficientItems
	}
	return &Pairwise{items: items}, nil
}

// Mode returns the comparison mode this strategy implements
func (p *Pairwise) Mode() models.ComparisonMode {
	return models.EloTournament
}

// Items returns the items in matchup order
func (p *Pairwise) Items() []models.Item {
	return p.items
}

// Matchup returns the two items currently being compared
func (p *Pairwise) Matchup() (models.Item, models.Item) {
	return p.items[0], p.items[1]
}

// ChooseWinner records which side of the matchup won
func (p *Pairwise) ChooseWinner(itemID int) error {
	a, b := p.Matchup()
	if itemID != a.ID && itemID != b.ID {
		return errors.Validationf("item %d is not part of the current matchup", itemID)
	}
	p.winner = itemID
	p.hasWinner = true
	return nil
}

// Winner returns the selected winner, if any
func (p *Pairwise) Winner() (int, bool) {
	return p.winner, p.hasWinner
}

// Payload returns [winner, loser] for the current matchup
func (p *Pairwise) Payload() ([]int, error) {
	if !p.hasWinner {
		return nil, ErrNoWinner
	}
	a, b := p.Matchup()
	if p.winner == a.ID {
		return []int{a.ID, b.ID}, nil
	}
	return []int{b.ID, a.ID}, nil
}

var _ Strategy = (*Pairwise)(nil)
