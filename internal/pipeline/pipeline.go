package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/drivers-report-service/internal/domain"
	"github.com/couchcryptid/drivers-report-service/internal/observability"
)

const (
	minBackoff = 200 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source. An empty
// batch means the source was idle.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer applies a raw event and returns the messages it produced. A
// successful event may produce none.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error)
}

// Sweeper is implemented by transformers that can produce messages without a
// source event. Sweep runs once per cycle, idle cycles included.
type Sweeper interface {
	Sweep(ctx context.Context) ([]domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for backoff waits and batch timing.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline moves field events from the source through the session registry
// and publishes the resulting notifications.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		batchSize:   batchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the pipeline has applied a field event.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not applied any field events yet")
	}
	return nil
}

// Run executes cycles until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	r := &retrier{clock: p.clock, delay: minBackoff}
	for ctx.Err() == nil {
		if !p.cycle(ctx, r) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// cycle extracts one batch, applies it, publishes what the batch and the
// sweep produced, then commits. It returns false when the pipeline should
// stop.
func (p *Pipeline) cycle(ctx context.Context, r *retrier) bool {
	start := p.clock.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return r.wait(ctx)
	}
	r.reset()

	if len(batch) > 0 {
		p.metrics.MessagesConsumed.Add(float64(len(batch)))
		p.metrics.BatchSize.Observe(float64(len(batch)))
	}

	out, applied := p.apply(ctx, batch)
	out = append(out, p.sweep(ctx)...)

	if !p.publish(ctx, out, r) {
		return false
	}
	for _, raw := range applied {
		p.commit(ctx, raw)
	}

	if len(applied) > 0 {
		p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// apply runs every event of the batch. Events that fail are committed and
// skipped; the rest are returned for commit after publishing.
func (p *Pipeline) apply(ctx context.Context, batch []domain.RawEvent) ([]domain.OutputEvent, []domain.RawEvent) {
	out := make([]domain.OutputEvent, 0, len(batch))
	applied := make([]domain.RawEvent, 0, len(batch))

	for _, raw := range batch {
		msgs, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("field event rejected, skipping message",
				"error", err,
				"key", string(raw.Key),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		out = append(out, msgs...)
		applied = append(applied, raw)
	}
	return out, applied
}

func (p *Pipeline) sweep(ctx context.Context) []domain.OutputEvent {
	s, ok := p.transformer.(Sweeper)
	if !ok {
		return nil
	}
	out, err := s.Sweep(ctx)
	if err != nil {
		p.logger.Warn("sweep failed", "error", err)
		return nil
	}
	return out
}

// publish loads out, retrying with backoff. Fields have already moved on, so
// the batch is never re-applied. It returns false if ctx ended first.
func (p *Pipeline) publish(ctx context.Context, out []domain.OutputEvent, r *retrier) bool {
	if len(out) == 0 {
		return true
	}
	for {
		err := p.loader.LoadBatch(ctx, out)
		if err == nil {
			p.metrics.MessagesProduced.Add(float64(len(out)))
			return true
		}
		p.logger.Error("publish notifications failed", "error", err, "count", len(out))
		if !r.wait(ctx) {
			return false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// retrier is an exponential backoff on the pipeline clock, doubling from
// minBackoff up to maxBackoff.
type retrier struct {
	clock clockwork.Clock
	delay time.Duration
}

func (r *retrier) reset() { r.delay = minBackoff }

// wait sleeps for the current delay on the pipeline clock and then grows it.
// It returns false if ctx ends first.
func (r *retrier) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := r.clock.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
	}
	r.delay = retry.NextBackoff(r.delay, maxBackoff)
	return true
}
