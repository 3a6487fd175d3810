package vote

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/fingerprint"
	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/internal/store"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

// ErrSessionClosed is returned from operations on a closed session.
var ErrSessionClosed = stderrors.New("vote session is closed")

// State is the vote session state
type State int

const (
	StateLoading State = iota
	StateCategoryError
	StateAlreadyVoted
	StateModeUnsupported
	StateInsufficientItems
	StateActive
	StateSubmitting
	StateVoted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateCategoryError:
		return "category_error"
	case StateAlreadyVoted:
		return "already_voted"
	case StateModeUnsupported:
		return "mode_unsupported"
	case StateInsufficientItems:
		return "insufficient_items"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateVoted:
		return "voted"
	default:
		return "unknown"
	}
}

// tierJob is one queued tier upsert for a single item. The category and
// fingerprint are captured at enqueue time so a job drained after the
// session moves to another category still carries the values it was
// selected under.
type tierJob struct {
	ctx         context.Context
	categoryID  int
	fingerprint string
	tier        int
}

// itemQueue serializes upserts per item so selections for the same item
// reach the server in submission order. Queues for different items run
// concurrently with no cross-item ordering guarantee.
type itemQueue struct {
	jobs   []tierJob
	active bool
}

// Controller orchestrates one vote session: concurrent category load and
// fingerprint derivation, the prior-vote check, strategy dispatch,
// submission, and post-vote state. All session state, including the shuffle
// and the fingerprint, is owned by the controller and torn down with it.
type Controller struct {
	log      logger.Logger
	client   pollapi.Client
	provider *fingerprint.Provider
	store    *store.Store

	sessionID string
	rng       *rand.Rand

	mu       sync.Mutex
	state    State
	category *models.Category
	fp       string
	shuffled []models.Item
	strategy Strategy
	lastErr  error
	voteID   *int
	votedAt  *time.Time
	queues   map[int]*itemQueue
	tierErrs map[int]error
	closed   bool
	wg       sync.WaitGroup
}

// NewController creates a controller for one vote session. The store may be
// nil, which disables the tier-selection journal.
func NewController(log logger.Logger, client pollapi.Client, provider *fingerprint.Provider, st *store.Store) *Controller {
	return &Controller{
		log:       log,
		client:    client,
		provider:  provider,
		store:     st,
		sessionID: uuid.NewString(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		state:     StateLoading,
		queues:    make(map[int]*itemQueue),
		tierErrs:  make(map[int]error),
	}
}

// SessionID returns the session identifier used in log lines
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Load fetches the category and derives the fingerprint concurrently, then
// checks prior vote status and enters the matching state. The item shuffle
// happens exactly once per load; calling Load again for the same category
// keeps the existing order.
func (c *Controller) Load(ctx context.Context, categoryID int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.category != nil && c.category.ID == categoryID && c.strategy != nil {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.mu.Unlock()

	var (
		wg     sync.WaitGroup
		cat    *models.Category
		catErr error
		fp     string
		fpErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cat, catErr = c.client.GetCategory(ctx, categoryID)
	}()
	go func() {
		defer wg.Done()
		fp, fpErr = c.provider.Fingerprint(ctx)
	}()
	wg.Wait()

	if catErr != nil {
		c.fail(StateCategoryError, catErr)
		return catErr
	}
	if fpErr != nil {
		// The digest primitive is the only thing that can fail here;
		// proceed without deduplication rather than blocking the session.
		c.log.Warn("Fingerprint derivation failed", "session", c.sessionID, "error", fpErr)
		fp = ""
	}

	// The status check needs both the category id and a resolved
	// fingerprint; it never fires with an empty fingerprint. Failures are
	// swallowed to the safe default: availability over strictness.
	hasVoted := false
	var voteID *int
	var votedAt *time.Time
	if fp != "" {
		status, err := c.client.VoteStatus(ctx, categoryID, fp)
		if err != nil {
			c.log.Warn("Vote status check failed, assuming not voted", "session", c.sessionID, "error", err)
		} else if status != nil {
			hasVoted = status.HasVoted
			voteID = status.VoteID
			votedAt = status.VotedAt
		}
	}

	var journal map[int]int
	if c.store != nil && cat.ComparisonMode == models.TournamentTiers {
		if sel, err := c.store.TierSelections(ctx, cat.ID); err == nil {
			journal = sel
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}

	// Switching categories invalidates everything scoped to the previous
	// one: pending upsert queues, per-item errors, and the prior-vote
	// record. In-flight upserts carry their own captured category and are
	// not touched.
	c.category = cat
	c.fp = fp
	c.shuffled = c.shuffle(cat.Items)
	c.queues = make(map[int]*itemQueue)
	c.tierErrs = make(map[int]error)
	c.voteID = nil
	c.votedAt = nil
	c.lastErr = nil

	strategy, err := NewStrategy(cat.ComparisonMode, c.shuffled, cat.Settings)
	if err != nil {
		if stderrors.Is(err, ErrInsufficientItems) {
			c.state = StateInsufficientItems
			c.lastErr = err
			c.log.Warn("Not enough items to compare", "session", c.sessionID, "category", cat.ID)
			return err
		}
		c.state = StateModeUnsupported
		c.lastErr = err
		c.log.Warn("Unsupported comparison mode", "session", c.sessionID, "mode", cat.ComparisonMode)
		return err
	}
	c.strategy = strategy

	if tiers, ok := strategy.(*Tiers); ok && journal != nil {
		tiers.Restore(journal)
	}

	if hasVoted && !cat.ComparisonMode.Continuous() {
		c.voteID = voteID
		c.votedAt = votedAt
		c.state = StateAlreadyVoted
		c.log.Info("Already voted", "session", c.sessionID, "category", cat.ID)
		return nil
	}

	c.state = StateActive
	c.log.Info("Vote session active", "session", c.sessionID, "category", cat.ID, "mode", cat.ComparisonMode)
	return nil
}

// fail records an error state
func (c *Controller) fail(state State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state = state
	c.lastErr = err
}

// shuffle returns a shuffled copy of the item list
func (c *Controller) shuffle(items []models.Item) []models.Item {
	shuffled := make([]models.Item, len(items))
	copy(shuffled, items)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// State returns the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Category returns the loaded category, or nil before load completes
func (c *Controller) Category() *models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// Fingerprint returns the resolved session fingerprint
func (c *Controller) Fingerprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fp
}

// ShuffledItems returns the session's item order. The shuffle is computed
// once per category load, so repeated calls observe the same order.
func (c *Controller) ShuffledItems() []models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffled
}

// Strategy returns the active vote mode strategy, or nil outside Active
// and related states
func (c *Controller) Strategy() Strategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// LastError returns the most recent session error
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// VoteID returns the recorded vote id, set after a successful submission or
// from the prior-vote status check
func (c *Controller) VoteID() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voteID
}

// VotedAt returns when the prior vote was cast, if known
func (c *Controller) VotedAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.votedAt
}

// Submit sends the strategy's choice payload as a one-shot vote. On success
// the session reaches the terminal voted state; on failure it stays active
// with the local selection intact and the error surfaced via LastError.
// Tier voting has no terminal submission and is rejected here.
func (c *Controller) Submit(ctx context.Context, comment string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state != StateActive {
		state := c.state
		c.mu.Unlock()
		return errors.Validationf("cannot submit in state %q", state)
	}
	if c.category.ComparisonMode.Continuous() {
		c.mu.Unlock()
		return ErrContinuousMode
	}
	if len(comment) > pollapi.MaxCommentLength {
		c.mu.Unlock()
		return errors.Validationf("comment exceeds %d characters", pollapi.MaxCommentLength)
	}

	payload, err := c.strategy.Payload()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	req := pollapi.VoteRequest{
		CategoryID:  c.category.ID,
		Fingerprint: c.fp,
		Choices:     payload,
		Comment:     comment,
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	resp, err := c.client.SubmitVote(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}
	if err != nil {
		c.state = StateActive
		c.lastErr = err
		c.log.Warn("Vote submission failed", "session", c.sessionID, "error", err)
		return err
	}
	if !resp.Success {
		c.state = StateActive
		c.lastErr = errors.Internalf("vote was not confirmed: %s", resp.Message)
		return c.lastErr
	}

	c.state = StateVoted
	c.voteID = &resp.VoteID
	c.lastErr = nil
	c.log.Info("Vote recorded", "session", c.sessionID, "category", req.CategoryID, "vote_id", resp.VoteID)
	return nil
}

// SelectTier records a tier choice locally and enqueues its upsert. The
// call returns immediately; the upsert runs on a per-item queue so repeated
// selections for one item reach the server in submission order while
// different items save concurrently. Failures surface through TierError,
// never through a session-level state change.
func (c *Controller) SelectTier(ctx context.Context, itemID, tierIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSessionClosed
	}
	if c.state != StateActive {
		return errors.Validationf("cannot select a tier in state %q", c.state)
	}
	tiers, ok := c.strategy.(*Tiers)
	if !ok {
		return errors.Validationf("tier selection requires %s mode", models.TournamentTiers)
	}
	if err := tiers.SetTier(itemID, tierIndex); err != nil {
		return err
	}
	delete(c.tierErrs, itemID)

	q := c.queues[itemID]
	if q == nil {
		q = &itemQueue{}
		c.queues[itemID] = q
	}
	q.jobs = append(q.jobs, tierJob{
		ctx:         ctx,
		categoryID:  c.category.ID,
		fingerprint: c.fp,
		tier:        tierIndex,
	})
	if !q.active {
		q.active = true
		c.wg.Add(1)
		go c.runQueue(itemID)
	}
	return nil
}

// runQueue drains one item's upsert queue and exits when it is empty, the
// session closes, or a category switch discards the queue.
func (c *Controller) runQueue(itemID int) {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		q := c.queues[itemID]
		if q == nil || c.closed || len(q.jobs) == 0 {
			if q != nil {
				q.active = false
			}
			c.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		c.mu.Unlock()

		req := pollapi.VoteRequest{
			CategoryID:  job.categoryID,
			Fingerprint: job.fingerprint,
			Choices:     []int{itemID, job.tier},
		}
		_, err := c.client.UpsertChoice(job.ctx, req)

		c.mu.Lock()
		// Per-item state belongs to the job's category; after a switch the
		// result is only journaled, never surfaced into the new session.
		current := !c.closed && c.category != nil && c.category.ID == job.categoryID
		if current {
			if err != nil {
				c.tierErrs[itemID] = err
				c.log.Warn("Tier save failed", "session", c.sessionID, "item_id", itemID, "error", err)
			} else {
				delete(c.tierErrs, itemID)
			}
		}
		c.mu.Unlock()

		if err == nil && c.store != nil {
			if jerr := c.store.SaveTierSelection(job.ctx, job.categoryID, itemID, job.tier); jerr != nil {
				c.log.Warn("Tier journal write failed", "session", c.sessionID, "item_id", itemID, "error", jerr)
			}
		}
	}
}

// Saving reports whether an upsert for the item is queued or in flight
func (c *Controller) Saving(itemID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queues[itemID]
	return q != nil && (q.active || len(q.jobs) > 0)
}

// TierError returns the most recent save failure for an item, cleared by
// the next selection or successful save
func (c *Controller) TierError(itemID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tierErrs[itemID]
}

// Wait blocks until all queued tier upserts have drained
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close tears the session down. No state is updated after Close returns;
// in-flight network calls finish but their results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
