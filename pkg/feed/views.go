package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/jestr-media/client/pkg/logging"
	"go.uber.org/zap"
)

const DefaultViewThreshold = 5

type View struct {
	Email  string `json:"email" validate:"required,email"`
	ItemId string `json:"memeID" validate:"required"`
}

type ViewAPI interface {
	RecordViews(ctx context.Context, views []View) error
}

// ViewBatch collects view events and sends them in one request once
// threshold distinct views are pending. Views of a failed request go back
// into the batch.
type ViewBatch struct {
	api       ViewAPI
	threshold int
	log       *zap.Logger

	mu      sync.Mutex
	pending []View
	queued  map[View]struct{}
}

func NewViewBatch(api ViewAPI, threshold int, log *zap.Logger) *ViewBatch {
	if threshold <= 0 {
		threshold = DefaultViewThreshold
	}
	return &ViewBatch{
		api:       api,
		threshold: threshold,
		log:       logging.OrNop(log),
		queued:    map[View]struct{}{},
	}
}

// Add queues v and flushes when the batch is full.
func (b *ViewBatch) Add(ctx context.Context, v View) error {
	b.mu.Lock()
	if _, ok := b.queued[v]; ok {
		b.mu.Unlock()
		return nil
	}
	b.queued[v] = struct{}{}
	b.pending = append(b.pending, v)
	if len(b.pending) < b.threshold {
		b.mu.Unlock()
		return nil
	}
	batch := b.take()
	b.mu.Unlock()

	return b.send(ctx, batch)
}

// Flush sends whatever is pending.
func (b *ViewBatch) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.take()
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.send(ctx, batch)
}

func (b *ViewBatch) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// take must be called with mu held
func (b *ViewBatch) take() []View {
	batch := b.pending
	b.pending = nil
	b.queued = map[View]struct{}{}
	return batch
}

func (b *ViewBatch) send(ctx context.Context, batch []View) error {
	err := b.api.RecordViews(ctx, batch)
	if err == nil {
		b.log.Debug("Recorded views", zap.Int("count", len(batch)))
		return nil
	}
	logging.Report(b.log, err, "Failed to record views", zap.Int("count", len(batch)))

	// Put the batch back in front of anything queued meanwhile
	b.mu.Lock()
	requeued := make([]View, 0, len(batch)+len(b.pending))
	for _, v := range batch {
		if _, ok := b.queued[v]; ok {
			continue
		}
		b.queued[v] = struct{}{}
		requeued = append(requeued, v)
	}
	b.pending = append(requeued, b.pending...)
	b.mu.Unlock()

	return fmt.Errorf("record views: %w", err)
}
