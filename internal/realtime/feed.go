package realtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

const (
	handshakeWait  = 15 * time.Second
	feedPongWait   = 70 * time.Second
	feedPingPeriod = 25 * time.Second
	feedWriteWait  = 10 * time.Second
	changeBuffer   = 256
)

var (
	ErrSubscribeRejected = errors.New("subscribe_rejected")
	ErrHandshakeTimeout  = errors.New("subscribe_handshake_timeout")
)

// Subscription is one live table subscription. Changes is closed when
// the subscription ends, whether by Close or by a feed failure.
type Subscription interface {
	Changes() <-chan billingdomain.Change
	Close() error
}

// Feed hands out per-table change subscriptions. Subscribe returns
// only once the feed has acknowledged the table.
type Feed interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// WebsocketFeed subscribes over a websocket connection per table.
type WebsocketFeed struct {
	url    string
	log    *zap.Logger
	dialer *websocket.Dialer
}

func NewWebsocketFeed(url string, log *zap.Logger) *WebsocketFeed {
	return &WebsocketFeed{
		url:    url,
		log:    log.Named("realtime.feed"),
		dialer: websocket.DefaultDialer,
	}
}

// Subscribe dials the feed, requests the table and waits for the ack
// frame. The returned subscription pumps change frames until closed.
func (f *WebsocketFeed) Subscribe(ctx context.Context, table string) (Subscription, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(subscribeRequest{Action: "subscribe", Table: table}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(handshakeWait))
	var ack feedFrame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrHandshakeTimeout
		}
		return nil, fmt.Errorf("read ack: %w", err)
	}
	if ack.Kind != frameAck || ack.Table != table {
		conn.Close()
		if ack.Kind == frameError {
			f.log.Warn("subscribe rejected", zap.String("table", table), zap.String("reason", ack.Error))
		}
		return nil, ErrSubscribeRejected
	}

	sub := &wsSubscription{
		table:   table,
		conn:    conn,
		log:     f.log,
		changes: make(chan billingdomain.Change, changeBuffer),
		done:    make(chan struct{}),
	}
	go sub.readPump()
	go sub.pingLoop()
	return sub, nil
}

type wsSubscription struct {
	table   string
	conn    *websocket.Conn
	log     *zap.Logger
	changes chan billingdomain.Change

	closeOnce sync.Once
	done      chan struct{}
}

func (s *wsSubscription) Changes() <-chan billingdomain.Change {
	return s.changes
}

// Close sends an unsubscribe request and tears the connection down.
// Safe to call more than once.
func (s *wsSubscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		// Best effort; the connection is going away either way.
		_ = s.conn.WriteJSON(subscribeRequest{Action: "unsubscribe", Table: s.table})
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	})
	return nil
}

func (s *wsSubscription) readPump() {
	defer close(s.changes)
	defer s.Close()

	s.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		var frame feedFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Warn("feed read failed", zap.String("table", s.table), zap.Error(err))
				}
			}
			return
		}
		if frame.Kind != frameChange || frame.Change == nil {
			continue
		}
		select {
		case s.changes <- *frame.Change:
		case <-s.done:
			return
		}
	}
}

func (s *wsSubscription) pingLoop() {
	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
