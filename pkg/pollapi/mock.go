package pollapi

import (
	"context"
	"sync"

	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
)

// MockClient is a mock polling API client for testing
type MockClient struct {
	mu sync.Mutex

	categories []models.Category
	status     models.VoteStatus
	results    *Results
	baseURL    string

	listErr    error
	getErr     error
	submitErr  error
	upsertErr  error
	statusErr  error
	resultsErr error

	submitCalls []VoteRequest
	upsertCalls []VoteRequest
	statusCalls int
	nextVoteID  int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithCategories sets the categories to return
func WithCategories(categories ...models.Category) MockOption {
	return func(m *MockClient) {
		m.categories = categories
	}
}

// WithVoteStatus sets the vote status to return
func WithVoteStatus(status models.VoteStatus) MockOption {
	return func(m *MockClient) {
		m.status = status
	}
}

// WithResults sets the results to return
func WithResults(results *Results) MockOption {
	return func(m *MockClient) {
		m.results = results
	}
}

// WithListError sets an error to return from ListCategories
func WithListError(err error) MockOption {
	return func(m *MockClient) {
		m.listErr = err
	}
}

// WithGetError sets an error to return from GetCategory
func WithGetError(err error) MockOption {
	return func(m *MockClient) {
		m.getErr = err
	}
}

// WithSubmitError sets an error to return from SubmitVote
func WithSubmitError(err error) MockOption {
	return func(m *MockClient) {
		m.submitErr = err
	}
}

// WithUpsertError sets an error to return from UpsertChoice
func WithUpsertError(err error) MockOption {
	return func(m *MockClient) {
		m.upsertErr = err
	}
}

// WithStatusError sets an error to return from VoteStatus
func WithStatusError(err error) MockOption {
	return func(m *MockClient) {
		m.statusErr = err
	}
}

// WithResultsError sets an error to return from GetResults
func WithResultsError(err error) MockOption {
	return func(m *MockClient) {
		m.resultsErr = err
	}
}

// NewMockClient creates a new mock polling API client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:    "http://mock-pollapi.local/api/v1",
		nextVoteID: 100,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// ListCategories returns the configured mock categories or error
func (m *MockClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.categories, nil
}

// GetCategory returns the configured category with a matching id
func (m *MockClient) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.categories {
		if m.categories[i].ID == id {
			cat := m.categories[i]
			return &cat, nil
		}
	}
	return nil, errors.NotFound("category not found")
}

// SubmitVote records the request and returns a success response or the
// configured error
func (m *MockClient) SubmitVote(ctx context.Context, req VoteRequest) (*VoteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls = append(m.submitCalls, req)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.nextVoteID++
	return &VoteResponse{Success: true, VoteID: m.nextVoteID, Message: "Vote recorded successfully"}, nil
}

// UpsertChoice records the request and returns a success response or the
// configured error
func (m *MockClient) UpsertChoice(ctx context.Context, req VoteRequest) (*VoteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls = append(m.upsertCalls, req)
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return &VoteResponse{Success: true, VoteID: m.nextVoteID, Message: "Vote saved"}, nil
}

// VoteStatus returns the configured vote status or error
func (m *MockClient) VoteStatus(ctx context.Context, categoryID int, fingerprint string) (*models.VoteStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	status := m.status
	return &status, nil
}

// GetResults returns the configured results or error
func (m *MockClient) GetResults(ctx context.Context, categoryID int, fingerprint string) (*Results, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	if m.results != nil {
		return m.results, nil
	}
	return &Results{CategoryID: categoryID}, nil
}

// SubmitCalls returns the recorded vote submissions (for testing)
func (m *MockClient) SubmitCalls() []VoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]VoteRequest(nil), m.submitCalls...)
}

// UpsertCalls returns the recorded choice upserts in submission order (for testing)
func (m *MockClient) UpsertCalls() []VoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]VoteRequest(nil), m.upsertCalls...)
}

// StatusCalls returns how many times VoteStatus was invoked (for testing)
func (m *MockClient) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
