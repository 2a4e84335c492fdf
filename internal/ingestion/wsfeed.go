package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"credit-risk-lab/internal/domain"
)

// QuoteMessage is the wire format of one quote on the feed.
type QuoteMessage struct {
	Symbol      string  `json:"symbol"`
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}

// subscribeRequest is sent once after connecting.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// QuoteFeedConfig configures feed timeouts.
type QuoteFeedConfig struct {
	// ReadTimeout bounds the wait for each message.
	ReadTimeout time.Duration
	// WriteTimeout bounds the subscribe write.
	WriteTimeout time.Duration
}

// DefaultQuoteFeedConfig returns the default feed configuration.
func DefaultQuoteFeedConfig() QuoteFeedConfig {
	return QuoteFeedConfig{
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// QuoteFeed streams price observations from a market-data websocket
// endpoint into the analysis.
type QuoteFeed struct {
	endpoint string
	config   QuoteFeedConfig
}

// NewQuoteFeed creates a feed for the given endpoint.
func NewQuoteFeed(endpoint string, config *QuoteFeedConfig) *QuoteFeed {
	cfg := DefaultQuoteFeedConfig()
	if config != nil {
		cfg = *config
	}
	return &QuoteFeed{endpoint: endpoint, config: cfg}
}

// Stream connects, subscribes to the given symbols and forwards each
// quote to out until the context is cancelled or the server closes the
// connection. A normal server close returns nil; malformed or invalid
// quotes fail the stream rather than being dropped silently.
func (f *QuoteFeed) Stream(ctx context.Context, symbols []string, out chan<- domain.PriceObservation) error {
	if len(symbols) == 0 {
		return errors.New("no symbols to subscribe")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.endpoint, err)
	}
	defer conn.Close()

	// Force the blocked read to fail when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Symbols: symbols}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read quote: %w", err)
		}

		var msg QuoteMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode quote %q: %w", data, err)
		}
		if msg.Symbol == "" || msg.Price <= 0 {
			return fmt.Errorf("invalid quote %+v", msg)
		}

		obs := domain.PriceObservation{
			Symbol:      msg.Symbol,
			TimestampMs: msg.TimestampMs,
			Price:       msg.Price,
		}
		select {
		case out <- obs:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
