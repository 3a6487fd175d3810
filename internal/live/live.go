// Package live streams result updates for a category, preferring the
// server's WebSocket broadcast channel and falling back to polling the
// results endpoint when no WebSocket base is configured or the dial fails.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Update is one results refresh, from either the WebSocket stream or a poll
type Update struct {
	CategoryID int                    `json:"category_id"`
	TotalVotes int                    `json:"total_votes"`
	Results    []models.VoteResultRow `json:"results"`
}

// Subscriber consumes the server's results broadcast channel
type Subscriber struct {
	wsBase string
	log    logger.Logger
	dialer *websocket.Dialer
}

// NewSubscriber creates a subscriber for the given WebSocket base URL
// (e.g. ws://host:8000)
func NewSubscriber(wsBase string, log logger.Logger) *Subscriber {
	return &Subscriber{
		wsBase: wsBase,
		log:    log,
		dialer: websocket.DefaultDialer,
	}
}

// Run subscribes to result updates for a category and forwards them on ch
// until the context is canceled or the connection drops. The channel is
// not closed; callers own its lifecycle.
func (s *Subscriber) Run(ctx context.Context, categoryID int, ch chan<- Update) error {
	url := fmt.Sprintf("%s/ws/results/%d", s.wsBase, categoryID)
	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to results stream: %w", err)
	}
	defer conn.Close()

	s.log.Debug("Results stream connected", "url", url)

	// Close the connection when the context ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	// Keepalive pings, mirroring the server's pong deadline
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			case <-done:
				return
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("results stream closed unexpectedly: %w", err)
			}
			return nil
		}

		var msg models.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Debug("Ignoring malformed stream message", "error", err)
			continue
		}
		if msg.Type != "results_update" {
			continue
		}

		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			continue
		}
		var update Update
		if err := json.Unmarshal(payload, &update); err != nil {
			s.log.Debug("Ignoring malformed results update", "error", err)
			continue
		}

		select {
		case ch <- update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Poller refreshes results at a fixed interval through the REST API. It is
// the fallback when no WebSocket endpoint is available.
type Poller struct {
	client   pollapi.Client
	clock    clockwork.Clock
	interval time.Duration
	log      logger.Logger
}

// NewPoller creates a poller with the given refresh interval
func NewPoller(client pollapi.Client, clock clockwork.Clock, interval time.Duration, log logger.Logger) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{client: client, clock: clock, interval: interval, log: log}
}

// Run fetches results immediately and then on every tick, forwarding each
// successful fetch on ch until the context is canceled. Fetch failures are
// logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context, categoryID int, fingerprint string, ch chan<- Update) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		res, err := p.client.GetResults(ctx, categoryID, fingerprint)
		if err != nil {
			if pollapi.IsPrivateResults(err) {
				// Not transient; polling again will not help
				return err
			}
			p.log.Warn("Results poll failed", "category", categoryID, "error", err)
		} else {
			update := Update{
				CategoryID: res.CategoryID,
				TotalVotes: res.TotalVotes,
				Results:    res.Results,
			}
			select {
			case ch <- update:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ticker.Chan():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
