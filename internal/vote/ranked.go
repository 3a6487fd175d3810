package vote

import (
	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// Ranked maintains a full ordering of the item list, initialized from the
// pre-shuffled order handed over by the controller. Reordering is a
// position swap; the payload is the complete id permutation at submit time.
type Ranked struct {
	order []models.Item
}

// NewRanked creates a ranked-list strategy seeded with the given order
func NewRanked(items []models.Item) *Ranked {
	order := make([]models.Item, len(items))
	copy(order, items)
	return &Ranked{order: order}
}

// Mode returns the comparison mode this strategy implements
func (r *Ranked) Mode() models.ComparisonMode {
	return models.RankedList
}

// Items returns the items in their current ranking order
func (r *Ranked) Items() []models.Item {
	return r.order
}

// Move swaps the items at the two positions. A move onto the same position
// is a no-op and does not alter the existing order.
func (r *Ranked) Move(from, to int) error {
	if from < 0 || from >= len(r.order) || to < 0 || to >= len(r.order) {
		return errors.Validationf("position out of range: %d -> %d", from, to)
	}
	if from == to {
		return nil
	}
	r.order[from], r.order[to] = r.order[to], r.order[from]
	return nil
}

// Payload returns the full id permutation in current ranking order
func (r *Ranked) Payload() ([]int, error) {
	if len(r.order) < 2 {
		return nil, ErrInsufficientItems
	}
	ids := make([]int, len(r.order))
	for i, item := range r.order {
		ids[i] = item.ID
	}
	return ids, nil
}

var _ Strategy = (*Ranked)(nil)
