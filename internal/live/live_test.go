package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/abrezinsky/pollbooth/internal/errors"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/internal/testutil"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

// wsServer starts a WebSocket endpoint that runs serve on each connection
func wsServer(t *testing.T, serve func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/results/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSubscriber_ReceivesUpdates(t *testing.T) {
	wsBase := wsServer(t, func(conn *websocket.Conn) {
		// An unrelated message type is skipped silently
		conn.WriteJSON(models.WSMessage{Type: "viewer_count", Payload: 3})
		conn.WriteJSON(models.WSMessage{
			Type: "results_update",
			Payload: Update{
				CategoryID: 7,
				TotalVotes: 12,
				Results: []models.VoteResultRow{
					{ItemID: 1, ItemName: "Pretzels", VoteCount: 12, Percentage: 100},
				},
			},
		})
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	})

	sub := NewSubscriber(wsBase, testutil.NoopLogger{})
	ch := make(chan Update, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sub.Run(ctx, 7, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	select {
	case update := <-ch:
		if update.CategoryID != 7 || update.TotalVotes != 12 {
			t.Errorf("unexpected update: %+v", update)
		}
		if len(update.Results) != 1 || update.Results[0].ItemName != "Pretzels" {
			t.Errorf("unexpected result rows: %+v", update.Results)
		}
	default:
		t.Fatal("expected one update on the channel")
	}

	// The ignored message type must not have produced an update
	select {
	case update := <-ch:
		t.Errorf("unexpected extra update: %+v", update)
	default:
	}
}

func TestSubscriber_MalformedMessagesSkipped(t *testing.T) {
	wsBase := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(models.WSMessage{Type: "results_update", Payload: Update{CategoryID: 7}})
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	})

	sub := NewSubscriber(wsBase, testutil.NoopLogger{})
	ch := make(chan Update, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sub.Run(ctx, 7, ch); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(ch) != 1 {
		t.Errorf("expected exactly 1 update, got %d", len(ch))
	}
}

func TestSubscriber_DialFailure(t *testing.T) {
	sub := NewSubscriber("ws://127.0.0.1:1", testutil.NoopLogger{})
	ch := make(chan Update, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sub.Run(ctx, 7, ch); err == nil {
		t.Fatal("expected error when the stream cannot be dialed")
	}
}

func TestSubscriber_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	wsBase := wsServer(t, func(conn *websocket.Conn) {
		// Hold the connection open until the client disconnects
		conn.ReadMessage()
		close(release)
	})

	sub := NewSubscriber(wsBase, testutil.NoopLogger{})
	ch := make(chan Update, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := sub.Run(ctx, 7, ch)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	select {
	case <-release:
	case <-time.After(5 * time.Second):
		t.Fatal("server connection was not released after cancel")
	}
}

func TestPoller_FetchesImmediately(t *testing.T) {
	client := pollapi.NewMockClient(pollapi.WithResults(&pollapi.Results{
		CategoryID: 7,
		TotalVotes: 5,
		Results:    []models.VoteResultRow{{ItemID: 1, VoteCount: 5, Percentage: 100}},
	}))
	clock := clockwork.NewFakeClock()
	poller := NewPoller(client, clock, 5*time.Second, testutil.NoopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan Update, 4)
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx, 7, "fp", ch) }()

	select {
	case update := <-ch:
		if update.CategoryID != 7 || update.TotalVotes != 5 {
			t.Errorf("unexpected update: %+v", update)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate fetch before the first tick")
	}

	// The next fetch waits for the ticker
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	select {
	case update := <-ch:
		if update.CategoryID != 7 {
			t.Errorf("unexpected update: %+v", update)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a fetch after the tick")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPoller_PrivateResultsTerminates(t *testing.T) {
	client := pollapi.NewMockClient(
		pollapi.WithResultsError(errors.Private("Results are private until you vote")),
	)
	poller := NewPoller(client, clockwork.NewFakeClock(), time.Second, testutil.NoopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := poller.Run(ctx, 7, "fp", make(chan Update, 1))
	if err == nil {
		t.Fatal("expected private-results error to end the poll loop")
	}
	if !pollapi.IsPrivateResults(err) {
		t.Errorf("expected private-results error, got %v", err)
	}
}

func TestPoller_TransientErrorRetries(t *testing.T) {
	client := pollapi.NewMockClient(
		pollapi.WithResultsError(errors.Transport("failed to load results", nil)),
	)
	clock := clockwork.NewFakeClock()
	poller := NewPoller(client, clock, time.Second, testutil.NoopLogger{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx, 7, "fp", make(chan Update, 1)) }()

	// The loop must be waiting on the next tick, not returning the error
	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled after retry wait, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestNewPoller_NilClock(t *testing.T) {
	poller := NewPoller(pollapi.NewMockClient(), nil, time.Second, testutil.NoopLogger{})
	if poller.clock == nil {
		t.Fatal("expected a real clock to be substituted")
	}
}
