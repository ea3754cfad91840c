package usecase

import (
	"context"
	"sync"
	"time"

	"VNSniper/internal/domain/models"
	drepo "VNSniper/internal/domain/repository"
)

// streamRetryDelay paces reconnect attempts after the stream channels
// close, so a dead feed does not turn the consume loop into a busy spin.
const streamRetryDelay = 5 * time.Second

// TickCollector consumes the live price-board stream between runs and
// keeps the last seen price per symbol.
type TickCollector struct {
	stream  drepo.PriceStream
	metrics drepo.Metrics

	mu     sync.RWMutex
	prices map[string]models.Tick
}

func NewTickCollector(stream drepo.PriceStream, metrics drepo.Metrics) *TickCollector {
	return &TickCollector{
		stream:  stream,
		metrics: metrics,
		prices:  make(map[string]models.Tick),
	}
}

func (c *TickCollector) IsConnected() bool { return c.stream.IsConnected() }

// Start connects, subscribes, and launches the consume loop.
func (c *TickCollector) Start(ctx context.Context, symbols []string) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, symbols); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		if tickCh == nil && errCh == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(streamRetryDelay):
			}
			if err := c.stream.Reconnect(ctx); err != nil {
				c.metrics.RecordError("stream")
				continue
			}
			tickCh, errCh = c.stream.Read(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				tickCh, errCh = nil, nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					tickCh, errCh = c.stream.Read(ctx)
				} else {
					tickCh, errCh = nil, nil
				}
			}
		case t, ok := <-tickCh:
			if !ok {
				tickCh, errCh = nil, nil
				continue
			}
			if t == nil {
				continue
			}
			c.mu.Lock()
			c.prices[t.Symbol] = *t
			c.mu.Unlock()
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// LastPrice returns the most recent tick for a symbol, if any arrived.
func (c *TickCollector) LastPrice(symbol string) (models.Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.prices[symbol]
	return t, ok
}

// Snapshot copies the whole live price table.
func (c *TickCollector) Snapshot() map[string]models.Tick {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Tick, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

func (c *TickCollector) Stop() error { return c.stream.Close() }
