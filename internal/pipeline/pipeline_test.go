package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/drivers-report-service/internal/domain"
	"github.com/couchcryptid/drivers-report-service/internal/observability"
	"github.com/couchcryptid/drivers-report-service/internal/pipeline"
	"github.com/couchcryptid/drivers-report-service/internal/session"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err    error
	fanout int
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.OutputEvent, m.fanout)
	for i := range out {
		out[i] = domain.OutputEvent{Key: raw.Key, Value: raw.Value}
	}
	return out, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) snapshot() []domain.OutputEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutputEvent(nil), m.loaded...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func fieldEvent(t *testing.T, fieldID string, typ domain.EventType, value *string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.FieldEvent{FieldID: fieldID, Type: typ, Value: value})
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(fieldID), Value: data, Topic: "date-field-events"}
}

func strPtr(s string) *string { return &s }

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := domain.RawEvent{Key: []byte("f1"), Value: []byte(`{}`)}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{fanout: 2}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Len(t, ldr.snapshot(), 2)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ReadyWithoutNotifications(t *testing.T) {
	raw := domain.RawEvent{Key: []byte("f1"), Value: []byte(`{}`)}
	commits := 0
	raw.Commit = func(context.Context) error {
		commits++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.snapshot())
	assert.Equal(t, 0, ldr.calls, "nothing to publish")
	assert.Equal(t, 1, commits)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.snapshot())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	committed := false
	raw := domain.RawEvent{Value: []byte(`{}`), Commit: func(context.Context) error {
		committed = true
		return nil
	}}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.snapshot())
	assert.True(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RetriesFailedLoad(t *testing.T) {
	committed := false
	raw := domain.RawEvent{Value: []byte(`{}`), Commit: func(context.Context) error {
		committed = true
		return nil
	}}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{failures: 1}
	p := pipeline.New(ext, &mockTransformer{fanout: 1}, ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, time.Second)

	assert.Equal(t, 2, ldr.calls)
	assert.Len(t, ldr.snapshot(), 1)
	assert.True(t, committed)
}

func TestFieldTransformer_WithRegistry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2020, 1, 15, 9, 0, 0, 0, time.UTC))
	reg := session.NewRegistry(session.Defaults{Locale: "en", TimeZone: "UTC"}, discardLogger(), session.WithClock(clock))
	tfm := pipeline.NewTransformer(reg, discardLogger())

	configure, err := json.Marshal(domain.FieldEvent{
		FieldID: "checkout",
		Type:    domain.EventConfigure,
		Config: &domain.FieldConfig{
			Value:       strPtr("2020-01-10"),
			MinimumDate: "2020-01-01",
			MaximumDate: "2020-01-31",
		},
	})
	require.NoError(t, err)

	out, err := tfm.Transform(context.Background(), domain.RawEvent{Value: configure})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = tfm.Transform(context.Background(), fieldEvent(t, "checkout", domain.EventBlur, strPtr("2020-02-15")))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []byte("checkout"), out[0].Key)
	assert.Equal(t, domain.NotificationType, out[0].Headers["event_type"])

	var n domain.Notification
	require.NoError(t, json.Unmarshal(out[0].Value, &n))
	require.NotNil(t, n.Value)
	assert.Equal(t, "01/10/2020", *n.Value, "out of range input reverts")
}

func TestFieldTransformer_Errors(t *testing.T) {
	reg := session.NewRegistry(session.Defaults{Locale: "en"}, discardLogger())
	tfm := pipeline.NewTransformer(reg, discardLogger())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = tfm.Transform(context.Background(), fieldEvent(t, "missing", domain.EventBlur, nil))
	assert.ErrorIs(t, err, session.ErrFieldNotFound)
}

func TestPipeline_EndToEndWithRegistry(t *testing.T) {
	reg := session.NewRegistry(session.Defaults{Locale: "en", TimeZone: "UTC"}, discardLogger())
	_, _, err := reg.Configure("f1", domain.FieldConfig{})
	require.NoError(t, err)

	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{
			fieldEvent(t, "f1", domain.EventInput, strPtr("03/04/2021")),
			fieldEvent(t, "f1", domain.EventBlur, strPtr("03/04/2021")),
		},
		{
			fieldEvent(t, "f1", domain.EventOpen, nil),
			fieldEvent(t, "f1", domain.EventSelect, strPtr("03/09/2021")),
		},
	}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(reg, discardLogger()), ldr, discardLogger(), newTestMetrics(), 10)

	runFor(t, p, 300*time.Millisecond)

	loaded := ldr.snapshot()
	require.Len(t, loaded, 2)
	values := make([]string, len(loaded))
	for i, msg := range loaded {
		var n domain.Notification
		require.NoError(t, json.Unmarshal(msg.Value, &n))
		require.NotNil(t, n.Value)
		values[i] = *n.Value
	}
	assert.Equal(t, []string{"03/04/2021", "03/09/2021"}, values)

	state, err := reg.Get("f1")
	require.NoError(t, err)
	assert.False(t, state.Open)
}

func TestPipeline_Run_BackoffFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	raw := domain.RawEvent{Key: []byte("f1"), Value: []byte(`{}`)}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{failures: 2}
	p := pipeline.New(ext, &mockTransformer{fanout: 1}, ldr, discardLogger(), newTestMetrics(), 10, pipeline.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(400 * time.Millisecond)

	require.Eventually(t, func() bool { return len(ldr.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 3, ldr.calls)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

// idleExtractor returns one batch, then empty batches until ctx ends. The
// first idle call runs onIdle.
type idleExtractor struct {
	first  []domain.RawEvent
	onIdle func()
	calls  atomic.Int64
}

func (e *idleExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	n := e.calls.Add(1)
	if n == 1 {
		return e.first, nil
	}
	if n == 2 && e.onIdle != nil {
		e.onIdle()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func TestPipeline_Run_PublishesDebouncedNotificationsWhenIdle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2020, 1, 15, 9, 0, 0, 0, time.UTC))
	reg := session.NewRegistry(session.Defaults{Locale: "en", TimeZone: "UTC"}, discardLogger(), session.WithClock(clock))

	configure, err := json.Marshal(domain.FieldEvent{
		FieldID: "f1",
		Type:    domain.EventConfigure,
		Config:  &domain.FieldConfig{DebounceMS: 300},
	})
	require.NoError(t, err)

	ext := &idleExtractor{
		first: []domain.RawEvent{
			{Key: []byte("f1"), Value: configure},
			fieldEvent(t, "f1", domain.EventBlur, strPtr("01/20/2020")),
		},
		onIdle: func() { clock.Advance(300 * time.Millisecond) },
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(reg, discardLogger()), ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(ldr.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	var n domain.Notification
	require.NoError(t, json.Unmarshal(ldr.snapshot()[0].Value, &n))
	require.NotNil(t, n.Value)
	assert.Equal(t, "01/20/2020", *n.Value)
	assert.Equal(t, domain.EventBlur, n.Cause)
}
