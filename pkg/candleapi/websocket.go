package candleapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/ringbuf"
)

const (
	defaultFeedURL    = "wss://stream.brokerhub.example/quotes"
	heartBeatInterval = 10 * time.Second
	heartBeatMessage  = "ping"
)

// QuoteFeed streams live quotes over WebSocket into a ring buffer. It
// resubscribes automatically after reconnecting.
type QuoteFeed struct {
	url       string
	apiKey    string
	feedToken string
	ring      *ringbuf.Ring

	dialer *websocket.Dialer
	conn   *websocket.Conn

	mu         sync.Mutex
	subscribed []string
	closed     bool

	maxRetries int
	retryDelay time.Duration

	// Callbacks for metrics and error reporting
	OnQuote     func()
	OnReconnect func()
	OnError     func(err error)
}

// NewQuoteFeed creates a feed pushing into ring. url == "" selects the
// production endpoint.
func NewQuoteFeed(url, apiKey, feedToken string, ring *ringbuf.Ring) (*QuoteFeed, error) {
	if apiKey == "" || feedToken == "" {
		return nil, errors.New("api key and feed token are required")
	}
	if url == "" {
		url = defaultFeedURL
	}
	return &QuoteFeed{
		url:        url,
		apiKey:     apiKey,
		feedToken:  feedToken,
		ring:       ring,
		dialer:     websocket.DefaultDialer,
		maxRetries: 5,
		retryDelay: 2 * time.Second,
	}, nil
}

// Connect dials the feed and starts the read and heartbeat loops.
func (f *QuoteFeed) Connect() error {
	header := http.Header{}
	header.Set("x-api-key", f.apiKey)
	header.Set("x-feed-token", f.feedToken)

	conn, _, err := f.dialer.Dial(f.url, header)
	if err != nil {
		return err
	}

	conn.SetPongHandler(func(string) error {
		return nil
	})

	f.mu.Lock()
	f.conn = conn
	f.closed = false
	f.mu.Unlock()

	go f.readLoop(conn)
	go f.heartbeatLoop(conn)
	return nil
}

// Subscribe registers symbols and sends the subscription frame. The set is
// remembered for resubscription after a reconnect.
func (f *QuoteFeed) Subscribe(symbols []string) error {
	f.mu.Lock()
	f.subscribed = append(f.subscribed, symbols...)
	conn := f.conn
	f.mu.Unlock()

	if conn == nil {
		return errors.New("not connected")
	}
	return conn.WriteJSON(map[string]any{
		"action":  "subscribe",
		"symbols": symbols,
	})
}

// Close shuts the feed down without triggering reconnection.
func (f *QuoteFeed) Close() {
	f.mu.Lock()
	f.closed = true
	conn := f.conn
	f.mu.Unlock()

	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}

// wireQuote is the feed's JSON frame layout.
type wireQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"ltp"`
	Volume float64 `json:"volume"`
	TSMs   int64   `json:"ts"` // epoch milliseconds
}

func (f *QuoteFeed) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			f.mu.Lock()
			closed := f.closed
			f.mu.Unlock()
			if !closed {
				log.Printf("[quotefeed] read error: %v", err)
				f.reconnect()
			}
			return
		}

		if string(message) == "pong" {
			continue
		}

		var wq wireQuote
		if err := json.Unmarshal(message, &wq); err != nil || wq.Symbol == "" {
			continue
		}

		f.ring.Push(model.Quote{
			Symbol: wq.Symbol,
			Price:  wq.Price,
			Volume: wq.Volume,
			TS:     time.UnixMilli(wq.TSMs).UTC(),
		})
		if f.OnQuote != nil {
			f.OnQuote()
		}
	}
}

func (f *QuoteFeed) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(heartBeatInterval)
	defer ticker.Stop()
	for range ticker.C {
		f.mu.Lock()
		closed := f.closed || f.conn != conn
		f.mu.Unlock()
		if closed {
			return
		}
		if err := conn.WriteMessage(websocket.PingMessage, []byte(heartBeatMessage)); err != nil {
			log.Printf("[quotefeed] ping write error: %v", err)
			return
		}
	}
}

// reconnect retries the connection with a fixed delay, then resends the
// remembered subscriptions.
func (f *QuoteFeed) reconnect() {
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		time.Sleep(f.retryDelay)
		if f.OnReconnect != nil {
			f.OnReconnect()
		}

		if err := f.Connect(); err != nil {
			log.Printf("[quotefeed] reconnect attempt %d/%d failed: %v", attempt, f.maxRetries, err)
			continue
		}

		f.mu.Lock()
		symbols := append([]string(nil), f.subscribed...)
		f.subscribed = nil
		f.mu.Unlock()
		if len(symbols) > 0 {
			if err := f.Subscribe(symbols); err != nil {
				log.Printf("[quotefeed] resubscribe failed: %v", err)
			}
		}
		return
	}

	if f.OnError != nil {
		f.OnError(errors.New("max reconnect attempts reached"))
	}
}
