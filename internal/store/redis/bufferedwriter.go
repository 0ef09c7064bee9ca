package redis

import (
	"context"
	"log"
	"sync"

	"backtest-systemv1/internal/scanner"
)

// BufferedPublisher wraps a Publisher with a circuit breaker. While the
// breaker is open, scan batches are held locally and replayed once the
// breaker closes, so an outage delays publication instead of losing it.
type BufferedPublisher struct {
	pub *Publisher
	cb  *Breaker
	ctx context.Context

	mu     sync.Mutex
	buffer [][]scanner.Opportunity
	maxBuf int // oldest batch is dropped beyond this

	// Callbacks for metrics
	OnBuffer func()
	OnFlush  func(count int)
}

// NewBufferedPublisher wraps pub. maxBuffered <= 0 selects a default of 100
// held scan batches.
func NewBufferedPublisher(ctx context.Context, pub *Publisher, cb *Breaker, maxBuffered int) *BufferedPublisher {
	if maxBuffered <= 0 {
		maxBuffered = 100
	}
	bp := &BufferedPublisher{
		pub:    pub,
		cb:     cb,
		ctx:    ctx,
		maxBuf: maxBuffered,
	}

	// Replay held batches whenever the breaker closes
	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prev != nil {
			prev(from, to)
		}
		if to == StateClosed {
			go bp.flush()
		}
	}

	return bp
}

// PublishScan publishes through the breaker, buffering when it is open.
// A buffered batch is reported as success: it will go out on recovery.
func (bp *BufferedPublisher) PublishScan(opps []scanner.Opportunity) error {
	err := bp.cb.Execute(func() error {
		return bp.pub.PublishScan(bp.ctx, opps)
	})
	if err == ErrCircuitOpen {
		bp.hold(opps)
		return nil
	}
	return err
}

func (bp *BufferedPublisher) hold(opps []scanner.Opportunity) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if len(bp.buffer) >= bp.maxBuf {
		bp.buffer = bp.buffer[1:]
	}
	bp.buffer = append(bp.buffer, opps)

	if bp.OnBuffer != nil {
		bp.OnBuffer()
	}
}

// flush replays held batches in arrival order.
func (bp *BufferedPublisher) flush() {
	bp.mu.Lock()
	if len(bp.buffer) == 0 {
		bp.mu.Unlock()
		return
	}
	toFlush := bp.buffer
	bp.buffer = nil
	bp.mu.Unlock()

	flushed := 0
	for _, opps := range toFlush {
		if err := bp.pub.PublishScan(bp.ctx, opps); err != nil {
			log.Printf("[buffered-publisher] replay error: %v", err)
			continue
		}
		flushed++
	}

	log.Printf("[buffered-publisher] flushed %d buffered scans", flushed)
	if bp.OnFlush != nil {
		bp.OnFlush(flushed)
	}
}

// PendingCount returns the number of scan batches waiting for replay.
func (bp *BufferedPublisher) PendingCount() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.buffer)
}

// Underlying returns the wrapped publisher for direct access.
func (bp *BufferedPublisher) Underlying() *Publisher {
	return bp.pub
}
