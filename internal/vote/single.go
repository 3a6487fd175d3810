package vote

import (
	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// SingleChoice holds at most one selected item. Submission is gated on a
// non-empty selection; one terminal submission per session.
type SingleChoice struct {
	items    []models.Item
	selected int
	hasPick  bool
}

// NewSingleChoice creates a single-choice strategy over the given items
func NewSingleChoice(items []models.Item) *SingleChoice {
	return &SingleChoice{items: items}
}

// Mode returns the comparison mode this strategy implements
func (s *SingleChoice) Mode() models.ComparisonMode {
	return models.SingleChoice
}

// Items returns the items in display order
func (s *SingleChoice) Items() []models.Item {
	return s.items
}

// Select records the chosen item, replacing any previous selection
func (s *SingleChoice) Select(itemID int) error {
	for _, item := range s.items {
		if item.ID == itemID {
			s.selected = itemID
			s.hasPick = true
			return nil
		}
	}
	return errors.Validationf("item %d is not part of this category", itemID)
}

// Selected returns the current selection, if any
func (s *SingleChoice) Selected() (int, bool) {
	return s.selected, s.hasPick
}

// Clear removes the current selection
func (s *SingleChoice) Clear() {
	s.selected = 0
	s.hasPick = false
}

// Payload returns the single selected item id
func (s *SingleChoice) Payload() ([]int, error) {
	if !s.hasPick {
		return nil, ErrNoSelection
	}
	return []int{s.selected}, nil
}

var _ Strategy = (*SingleChoice)(nil)
