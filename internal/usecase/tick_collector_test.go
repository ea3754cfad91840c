package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"VNSniper/internal/domain/models"
)

type fakeStream struct {
	ticks      chan *models.Tick
	errs       chan error
	reconnects atomic.Int32
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		ticks: make(chan *models.Tick, 8),
		errs:  make(chan error, 1),
	}
}

func (f *fakeStream) Connect(context.Context) error             { return nil }
func (f *fakeStream) Subscribe(context.Context, []string) error { return nil }
func (f *fakeStream) Close() error                              { return nil }
func (f *fakeStream) IsConnected() bool                         { return true }

func (f *fakeStream) Read(context.Context) (<-chan *models.Tick, <-chan error) {
	return f.ticks, f.errs
}

func (f *fakeStream) Reconnect(context.Context) error {
	f.reconnects.Add(1)
	return context.DeadlineExceeded
}

func TestTickCollectorKeepsLastPrice(t *testing.T) {
	stream := newFakeStream()
	c := NewTickCollector(stream, noopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx, []string{"FPT"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	stream.ticks <- &models.Tick{Symbol: "FPT", Price: 131.5}
	stream.ticks <- &models.Tick{Symbol: "FPT", Price: 132.0}

	deadline := time.Now().Add(2 * time.Second)
	for {
		tick, ok := c.LastPrice("FPT")
		if ok && tick.Price == 132.0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tick never reached the price table, got %+v ok=%v", tick, ok)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTickCollectorClosedStreamDoesNotSpin(t *testing.T) {
	stream := newFakeStream()
	c := NewTickCollector(stream, noopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx, []string{"FPT"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	close(stream.ticks)
	close(stream.errs)

	// With both channels closed the loop must park on the retry delay
	// instead of hammering Reconnect.
	time.Sleep(100 * time.Millisecond)
	if n := stream.reconnects.Load(); n > 1 {
		t.Fatalf("consume loop spun on closed channels, %d reconnect attempts", n)
	}
	cancel()
}
