// Package vote implements the client vote session: the per-mode interaction
// strategies and the controller that orchestrates category load, fingerprint
// readiness, prior-vote checks, and submission.
package vote

import (
	stderrors "errors"

	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// Strategy errors
var (
	ErrNoSelection       = stderrors.New("no item selected")
	ErrNoWinner          = stderrors.New("no winner selected for the current matchup")
	ErrInsufficientItems = stderrors.New("at least two items are required for pairwise comparison")
	ErrNoTierSelections  = stderrors.New("no tier selections have been made")
	ErrContinuousMode    = stderrors.New("tier voting saves each selection individually and has no final submission")
)

// Strategy is one vote-capture protocol. Each implementation owns its local
// interaction state and produces the choice payload for its comparison mode.
// Payload arity is the contract boundary to the server and must be exact:
// one id for single choice, [winner, loser] for pairwise, a full permutation
// for ranking, and [item, tier] pairs for tier voting.
type Strategy interface {
	// Mode returns the comparison mode this strategy implements
	Mode() models.ComparisonMode
	// Items returns the items in the strategy's working order
	Items() []models.Item
	// Payload returns the choice payload reflecting the current local state
	Payload() ([]int, error)
}

// NewStrategy selects the strategy for a comparison mode. The four modes
// are matched exhaustively; anything else is an explicit validation error,
// never a silent fallback.
func NewStrategy(mode models.ComparisonMode, items []models.Item, settings models.Settings) (Strategy, error) {
	switch mode {
	case models.SingleChoice:
		return NewSingleChoice(items), nil
	case models.EloTournament:
		return NewPairwise(items)
	case models.RankedList:
		return NewRanked(items), nil
	case models.TournamentTiers:
		return NewTiers(items, settings), nil
	default:
		return nil, errors.Validationf("unsupported comparison mode %q", mode)
	}
}
