package vnmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"VNSniper/internal/domain/models"
	drepo "VNSniper/internal/domain/repository"
	"VNSniper/pkg/logger"
)

// StreamConfig holds the price-board websocket settings.
type StreamConfig struct {
	URL            string
	APIKey         string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Stream implements PriceStream over the provider's price-board
// websocket. Ticks are dropped on backpressure rather than blocking
// the read loop.
type Stream struct {
	cfg StreamConfig
	log *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	symbols   []string
	connected bool
}

func NewStream(cfg StreamConfig, log *logger.Logger) *Stream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Stream{cfg: cfg, log: log}
}

var _ drepo.PriceStream = (*Stream)(nil)

func (s *Stream) Connect(ctx context.Context) error {
	u := s.cfg.URL
	if s.cfg.APIKey != "" {
		u = fmt.Sprintf("%s?token=%s", s.cfg.URL, s.cfg.APIKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("price stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("price stream connected")
	return nil
}

// Subscribe registers the symbols to stream. The set is remembered so
// a reconnect restores it.
func (s *Stream) Subscribe(ctx context.Context, symbols []string) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.symbols = append([]string(nil), symbols...)
	s.mu.Unlock()

	if conn == nil || !connected {
		return fmt.Errorf("price stream not connected")
	}
	for _, sym := range symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.log.Info("price stream subscribed", logger.Int("symbols", len(symbols)))
	return nil
}

type tickFrame struct {
	Type string `json:"type"`
	Data []struct {
		Symbol string  `json:"s"`
		Price  float64 `json:"p"`
		Volume float64 `json:"v"`
		TimeMS int64   `json:"t"`
	} `json:"data"`
}

// Read streams ticks and errors. Both channels close when the read
// loop exits; the caller decides whether to Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("price stream conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("price stream read: %w", err)
				return
			}

			var frame tickFrame
			if err := json.Unmarshal(b, &frame); err != nil || frame.Type != "tick" {
				continue
			}
			for _, d := range frame.Data {
				tick := &models.Tick{
					Symbol:    d.Symbol,
					Price:     d.Price,
					Volume:    d.Volume,
					Timestamp: d.TimeMS / 1000,
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes, waits, and restores the connection plus the last
// subscription set.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.ReconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	symbols := append([]string(nil), s.symbols...)
	s.mu.Unlock()
	if len(symbols) == 0 {
		return nil
	}
	return s.Subscribe(ctx, symbols)
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
