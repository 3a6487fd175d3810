// Package testutil provides an in-memory fake of the polling API for
// integration-style tests against the real HTTP client.
package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

// NoopLogger implements logger.Logger but discards all output
type NoopLogger struct{}

func (NoopLogger) Debug(msg string, args ...any) {}
func (NoopLogger) Info(msg string, args ...any)  {}
func (NoopLogger) Warn(msg string, args ...any)  {}
func (NoopLogger) Error(msg string, args ...any) {}
func (NoopLogger) SetLevel(level slog.Level)     {}
func (NoopLogger) GetLevel() slog.Level          { return slog.LevelInfo }
func (NoopLogger) EnableRequestLogging()         {}
func (NoopLogger) DisableRequestLogging()        {}
func (NoopLogger) IsRequestLoggingEnabled() bool { return false }

var _ logger.Logger = NoopLogger{}

// FakeAPI is an in-memory polling API backend. All exported state is
// guarded by Mu; tests may inspect it after driving the client.
type FakeAPI struct {
	Mu         sync.Mutex
	Categories map[int]models.Category
	Voted      map[string]bool // "categoryID:fingerprint"
	Results    map[int]pollapi.Results
	Submits    []pollapi.VoteRequest
	Upserts    []pollapi.VoteRequest

	// StatusFailures makes the vote status endpoint return 500 while > 0,
	// decrementing per request
	StatusFailures int
}

// NewFakeAPI creates a fake API preloaded with the given categories and
// starts an httptest server for it. The server is shut down with the test.
func NewFakeAPI(t *testing.T, categories ...models.Category) (*FakeAPI, *httptest.Server) {
	t.Helper()

	f := &FakeAPI{
		Categories: make(map[int]models.Category),
		Voted:      make(map[string]bool),
		Results:    make(map[int]pollapi.Results),
	}
	for _, cat := range categories {
		f.Categories[cat.ID] = cat
	}

	server := httptest.NewServer(f.Router())
	t.Cleanup(server.Close)
	return f, server
}

// Router returns the fake API's route table
func (f *FakeAPI) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/categories", f.listCategories)
	r.Get("/categories/{id}", f.getCategory)
	r.Post("/vote", f.submitVote)
	r.Post("/vote/upsert", f.upsertChoice)
	r.Get("/vote/status/{id}", f.voteStatus)
	r.Get("/results/{id}", f.getResults)
	return r
}

// MarkVoted records a prior vote for a (category, fingerprint) pair
func (f *FakeAPI) MarkVoted(categoryID int, fingerprint string) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.Voted[votedKey(categoryID, fingerprint)] = true
}

func votedKey(categoryID int, fingerprint string) string {
	return fmt.Sprintf("%d:%s", categoryID, fingerprint)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (f *FakeAPI) listCategories(w http.ResponseWriter, r *http.Request) {
	f.Mu.Lock()
	defer f.Mu.Unlock()

	// List view omits items, matching the real API
	categories := make([]models.Category, 0, len(f.Categories))
	for _, cat := range f.Categories {
		cat.Items = nil
		categories = append(categories, cat)
	}
	writeJSON(w, http.StatusOK, pollapi.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}

func (f *FakeAPI) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid category id")
		return
	}

	f.Mu.Lock()
	defer f.Mu.Unlock()
	cat, ok := f.Categories[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (f *FakeAPI) submitVote(w http.ResponseWriter, r *http.Request) {
	var req pollapi.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f.Mu.Lock()
	defer f.Mu.Unlock()

	cat, ok := f.Categories[req.CategoryID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	if f.Voted[votedKey(req.CategoryID, req.Fingerprint)] {
		writeDetail(w, http.StatusConflict, "Already voted in this category")
		return
	}
	if detail := validateArity(cat.ComparisonMode, req.Choices); detail != "" {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}

	f.Submits = append(f.Submits, req)
	f.Voted[votedKey(req.CategoryID, req.Fingerprint)] = true
	writeJSON(w, http.StatusOK, pollapi.VoteResponse{
		Success: true,
		VoteID:  len(f.Submits),
		Message: "Vote recorded successfully",
	})
}

// validateArity enforces the per-mode choice payload shape
func validateArity(mode models.ComparisonMode, choices []int) string {
	switch mode {
	case models.SingleChoice:
		if len(choices) != 1 {
			return "Single choice mode requires exactly one choice"
		}
	case models.EloTournament:
		if len(choices) != 2 {
			return "ELO tournament mode requires exactly two choices (winner, loser)"
		}
		if choices[0] == choices[1] {
			return "Winner and loser must be different items"
		}
	case models.RankedList:
		if len(choices) < 2 {
			return "Ranked list mode requires at least two choices"
		}
	case models.TournamentTiers:
		if len(choices) < 2 || len(choices)%2 != 0 {
			return "Tournament tiers mode requires pairs of (item_id, tier_index)"
		}
	}
	return ""
}

func (f *FakeAPI) upsertChoice(w http.ResponseWriter, r *http.Request) {
	var req pollapi.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f.Mu.Lock()
	defer f.Mu.Unlock()

	cat, ok := f.Categories[req.CategoryID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	if cat.ComparisonMode != models.TournamentTiers {
		writeDetail(w, http.StatusBadRequest, "Upsert only supported for tournament_tiers mode")
		return
	}
	if len(req.Choices) != 2 {
		writeDetail(w, http.StatusBadRequest, "Upsert requires exactly [item_id, tier_index]")
		return
	}

	f.Upserts = append(f.Upserts, req)
	f.Voted[votedKey(req.CategoryID, req.Fingerprint)] = true
	writeJSON(w, http.StatusOK, pollapi.VoteResponse{
		Success: true,
		VoteID:  len(f.Upserts),
		Message: "Vote saved",
	})
}

func (f *FakeAPI) voteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid category id")
		return
	}
	fingerprint := r.URL.Query().Get("fingerprint")

	f.Mu.Lock()
	defer f.Mu.Unlock()

	if f.StatusFailures > 0 {
		f.StatusFailures--
		writeDetail(w, http.StatusInternalServerError, "status check unavailable")
		return
	}

	writeJSON(w, http.StatusOK, models.VoteStatus{
		HasVoted: f.Voted[votedKey(id, fingerprint)],
	})
}

func (f *FakeAPI) getResults(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid category id")
		return
	}
	fingerprint := r.URL.Query().Get("fingerprint")

	f.Mu.Lock()
	defer f.Mu.Unlock()

	cat, ok := f.Categories[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Category not found")
		return
	}
	if cat.Settings.PrivateResults && !f.Voted[votedKey(id, fingerprint)] {
		writeDetail(w, http.StatusForbidden, "Results are private until you vote")
		return
	}

	res, ok := f.Results[id]
	if !ok {
		res = pollapi.Results{
			CategoryID:     id,
			CategoryName:   cat.Name,
			ComparisonMode: cat.ComparisonMode,
		}
	}
	writeJSON(w, http.StatusOK, res)
}
