// Package pollapi provides a client for the community polling REST API.
package pollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// PrivateResultsMarker is the recognizable fragment of the server's detail
// message when a category's results are private until the caller has voted.
const PrivateResultsMarker = "Results are private"

// MaxCommentLength mirrors the server-side limit on vote comments.
const MaxCommentLength = 1000

// VoteRequest is the body for both vote submission and choice upsert.
// Choices is the mode-specific choice payload: a single item id, a
// [winner, loser] pair, a full ranking permutation, or [item, tier] pairs.
type VoteRequest struct {
	CategoryID  int    `json:"category_id"`
	Fingerprint string `json:"fingerprint"`
	Choices     []int  `json:"choices"`
	Comment     string `json:"comment,omitempty"`
}

// VoteResponse is the server's acknowledgement of a vote or upsert.
type VoteResponse struct {
	Success bool   `json:"success"`
	VoteID  int    `json:"vote_id"`
	Message string `json:"message"`
}

// CategoryListResponse is the envelope returned by the category list endpoint.
type CategoryListResponse struct {
	Categories []models.Category `json:"categories"`
	Total      int               `json:"total"`
}

// Results is the full result set for a category.
type Results struct {
	CategoryID     int                    `json:"category_id"`
	CategoryName   string                 `json:"category_name"`
	ComparisonMode models.ComparisonMode  `json:"comparison_mode"`
	TotalVotes     int                    `json:"total_votes"`
	Results        []models.VoteResultRow `json:"results"`
}

// Client defines the interface for polling API operations
type Client interface {
	// ListCategories retrieves all active voting categories (without items)
	ListCategories(ctx context.Context) ([]models.Category, error)
	// GetCategory retrieves a category with its items
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	// SubmitVote records a one-shot vote for a category
	SubmitVote(ctx context.Context, req VoteRequest) (*VoteResponse, error)
	// UpsertChoice creates or updates a single tier choice. It is called
	// once per tier click, so callers must not drive a global busy
	// indicator from it; surface failures through per-item state instead.
	UpsertChoice(ctx context.Context, req VoteRequest) (*VoteResponse, error)
	// VoteStatus checks whether the fingerprint has voted in a category
	VoteStatus(ctx context.Context, categoryID int, fingerprint string) (*models.VoteStatus, error)
	// GetResults retrieves the result rows for a category. The fingerprint
	// is optional and only needed for private-results categories.
	GetResults(ctx context.Context, categoryID int, fingerprint string) (*Results, error)
	// BaseURL returns the configured API base URL
	BaseURL() string
}

// HTTPClient is the real HTTP client for the polling API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new polling API client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a new polling API client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured API base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// errorDetail is the FastAPI-style error body: {"detail": "..."}
type errorDetail struct {
	Detail string `json:"detail"`
}

// do executes one request and decodes the response into out. Non-2xx
// responses become kinded errors carrying the server's detail message when
// present, else the per-operation fallback. Network failures map to the
// transport kind with the same fallback.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Internal(err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL + path
	if c.log.IsRequestLoggingEnabled() {
		c.log.Debug("API request", "method", method, "url", reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return errors.Internal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Transport(fallback, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Transport(fallback, err)
	}

	if c.log.IsRequestLoggingEnabled() {
		c.log.Debug("API response", "status", resp.StatusCode, "body", string(raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, raw, fallback)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to parse API response")
		}
	}
	return nil
}

// statusError converts a non-2xx response into a kinded error, preferring
// the server-supplied detail message over the generic fallback.
func (c *HTTPClient) statusError(status int, raw []byte, fallback string) error {
	msg := fallback
	var detail errorDetail
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		msg = detail.Detail
	}

	switch {
	case status == http.StatusNotFound:
		return errors.NotFound(msg)
	case status == http.StatusConflict:
		return errors.Conflict(msg)
	case status == http.StatusForbidden && strings.Contains(msg, PrivateResultsMarker):
		return errors.Private(msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return errors.Validation(msg)
	default:
		return errors.Internalf("%s (status %d)", msg, status)
	}
}

// ListCategories retrieves all active voting categories. The list view
// omits items; use GetCategory for the full item set.
func (c *HTTPClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var resp CategoryListResponse
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &resp, "failed to load categories"); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// GetCategory retrieves a category with its items
func (c *HTTPClient) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	var category models.Category
	path := fmt.Sprintf("/categories/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &category, "category not found"); err != nil {
		return nil, err
	}
	return &category, nil
}

// SubmitVote records a one-shot vote for a category
func (c *HTTPClient) SubmitVote(ctx context.Context, req VoteRequest) (*VoteResponse, error) {
	if len(req.Comment) > MaxCommentLength {
		return nil, errors.Validationf("comment exceeds %d characters", MaxCommentLength)
	}
	var resp VoteResponse
	if err := c.do(ctx, http.MethodPost, "/vote", req, &resp, "failed to submit vote"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpsertChoice creates or updates a single tier choice
func (c *HTTPClient) UpsertChoice(ctx context.Context, req VoteRequest) (*VoteResponse, error) {
	var resp VoteResponse
	if err := c.do(ctx, http.MethodPost, "/vote/upsert", req, &resp, "failed to save choice"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VoteStatus checks whether the fingerprint has voted in a category
func (c *HTTPClient) VoteStatus(ctx context.Context, categoryID int, fingerprint string) (*models.VoteStatus, error) {
	var status models.VoteStatus
	path := fmt.Sprintf("/vote/status/%d?fingerprint=%s", categoryID, fingerprint)
	if err := c.do(ctx, http.MethodGet, path, nil, &status, "failed to check vote status"); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetResults retrieves the result rows for a category
func (c *HTTPClient) GetResults(ctx context.Context, categoryID int, fingerprint string) (*Results, error) {
	path := fmt.Sprintf("/results/%d", categoryID)
	if fingerprint != "" {
		path += "?fingerprint=" + fingerprint
	}
	var results Results
	if err := c.do(ctx, http.MethodGet, path, nil, &results, "failed to load results"); err != nil {
		return nil, err
	}
	return &results, nil
}

// IsPrivateResults reports whether the error marks the private-results
// condition, which callers render with a vote call-to-action rather than
// a retry action.
func IsPrivateResults(err error) bool {
	return errors.IsKind(err, errors.ErrPrivate)
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
