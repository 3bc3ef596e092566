package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// FeedConn is one live event connection.
type FeedConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Feed produces event connections. The websocket implementation is the
// real one; tests substitute their own.
type Feed interface {
	Connect(ctx context.Context) (FeedConn, error)
}

// WebsocketFeed dials the backend's /ws endpoint.
type WebsocketFeed struct {
	URL string
}

func (f *WebsocketFeed) Connect(ctx context.Context) (FeedConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, f.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsFeedConn{conn: conn}, nil
}

type wsFeedConn struct {
	conn *websocket.Conn
}

func (c *wsFeedConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsFeedConn) Close() error { return c.conn.Close() }

// Handlers receive decoded playlist events. Nil handlers are skipped.
type Handlers struct {
	OnInsert func(Entry)
	OnUpdate func(Entry)
	OnDelete func(id string)

	// OnError fires at most once, when reconnection gives up for good.
	OnError func(error)

	// OnReconnected fires after a dropped connection is re-established,
	// so the caller can reload state it may have missed.
	OnReconnected func()
}

// SubscriptionConfig controls the reconnect schedule: delays double from
// BaseDelay up to MaxDelay, and after MaxRetries consecutive failures
// the subscription gives up.
type SubscriptionConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		MaxRetries: 10,
	}
}

// Subscription states.
const (
	StateConnecting int32 = iota
	StateSubscribed
	StateDisconnected
	StateReconnecting
	StateFailed
	StateClosed
)

// ErrRetriesExhausted is reported through OnError when every reconnect
// attempt has failed.
var ErrRetriesExhausted = errors.New("realtime connection lost; reload to resubscribe")

// Subscription keeps a live event feed attached to the given handlers,
// reconnecting with exponential backoff when the connection drops.
type Subscription struct {
	feed     Feed
	handlers Handlers
	cfg      SubscriptionConfig

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSubscription(feed Feed, handlers Handlers, cfg SubscriptionConfig) *Subscription {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	return &Subscription{
		feed:     feed,
		handlers: handlers,
		cfg:      cfg,
		done:     make(chan struct{}),
	}
}

// Start begins connecting in the background. The subscription runs until
// Close is called, the context is cancelled, or retries are exhausted.
func (s *Subscription) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.state.Store(StateConnecting)
	go s.run(ctx)
}

// State reports the current connection state.
func (s *Subscription) State() int32 { return s.state.Load() }

// Close tears the subscription down and waits for the run loop to exit.
// Closing a subscription that was never started is a no-op.
func (s *Subscription) Close() {
	if s.cancel == nil {
		s.state.Store(StateClosed)
		return
	}
	s.cancel()
	<-s.done
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	attempts := 0
	wasConnected := false
	dropped := false

	for {
		if ctx.Err() != nil {
			s.state.Store(StateClosed)
			return
		}

		conn, err := s.feed.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.state.Store(StateClosed)
				return
			}
			if !s.backoff(ctx, &attempts) {
				return
			}
			continue
		}

		attempts = 0
		s.state.Store(StateSubscribed)
		if dropped && s.handlers.OnReconnected != nil {
			s.handlers.OnReconnected()
		}
		wasConnected = true
		dropped = false

		s.readLoop(ctx, conn)

		if ctx.Err() != nil {
			s.state.Store(StateClosed)
			return
		}
		s.state.Store(StateDisconnected)
		if wasConnected {
			dropped = true
		}
		if !s.backoff(ctx, &attempts) {
			return
		}
	}
}

// backoff sleeps before the next attempt. It returns false when retries
// are exhausted (reporting OnError once) or the context is cancelled.
func (s *Subscription) backoff(ctx context.Context, attempts *int) bool {
	if *attempts >= s.cfg.MaxRetries {
		s.state.Store(StateFailed)
		if s.handlers.OnError != nil {
			s.handlers.OnError(ErrRetriesExhausted)
		}
		return false
	}

	delay := s.backoffDelay(*attempts)
	*attempts++
	s.state.Store(StateReconnecting)

	select {
	case <-ctx.Done():
		s.state.Store(StateClosed)
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Subscription) backoffDelay(attempt int) time.Duration {
	delay := s.cfg.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= s.cfg.MaxDelay {
			return s.cfg.MaxDelay
		}
	}
	if delay > s.cfg.MaxDelay {
		return s.cfg.MaxDelay
	}
	return delay
}

// readLoop dispatches messages until the connection fails. A watcher
// goroutine closes the connection when the context is cancelled so the
// blocking read wakes up.
func (s *Subscription) readLoop(ctx context.Context, conn FeedConn) {
	watcherDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watcherDone:
		}
	}()
	defer close(watcherDone)
	defer conn.Close()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(data)
	}
}

func (s *Subscription) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("client: malformed event: %v", err)
		return
	}

	switch env.Type {
	case EventEntryAdded, EventEntryUpdated:
		var e Entry
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			log.Printf("client: malformed %s payload: %v", env.Type, err)
			return
		}
		if env.Type == EventEntryAdded {
			if s.handlers.OnInsert != nil {
				s.handlers.OnInsert(e)
			}
		} else if s.handlers.OnUpdate != nil {
			s.handlers.OnUpdate(e)
		}

	case EventEntryDeleted:
		var ref struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Payload, &ref); err != nil {
			log.Printf("client: malformed %s payload: %v", env.Type, err)
			return
		}
		if s.handlers.OnDelete != nil {
			s.handlers.OnDelete(ref.ID)
		}

	default:
		// Welcome frames and unknown types are ignored.
	}
}
