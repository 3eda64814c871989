package dispatch

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/consult-api/internal/config"
	"github.com/jwalitptl/consult-api/internal/gemini"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/pkg/logger"
)

// fakeClient scripts responses per call and records prompt order.
type fakeClient struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	prompts   []string
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeClient) GenerateConsultation(_ context.Context, prompt *model.MedicalPrompt) (*gemini.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt.UserPrompt)
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	r := f.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &gemini.Result{Text: r.text, Model: "test-model"}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeClient) promptOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func testConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		MaxPerMinute:     100,
		MaxPerHour:       1000,
		MaxRetries:       3,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		RateLimitCooloff: 5 * time.Millisecond,
		DefaultTimeout:   2 * time.Second,
		UrgentTimeout:    time.Second,
		QueueCapacity:    16,
	}
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func testPrompt(user string) *model.MedicalPrompt {
	return &model.MedicalPrompt{
		SystemInstruction:  "system",
		UserPrompt:         user,
		SafetyInstructions: []string{"never diagnose"},
	}
}

func newTestDispatcher(cfg config.DispatcherConfig, client gemini.Client) (*Dispatcher, context.CancelFunc) {
	d := NewDispatcher(cfg, client, testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	return d, func() {
		cancel()
		d.Wait()
	}
}

func TestDispatchSuccess(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{text: "consultation text"}}}
	d, stop := newTestDispatcher(testConfig(), client)
	defer stop()

	res, err := d.Dispatch(context.Background(), testPrompt("p"), model.PriorityNormal, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "consultation text", res.Text)
	assert.Equal(t, "test-model", res.Model)
	assert.Equal(t, 0, res.Retries)
}

func TestDispatchPriorityOrdering(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d := NewDispatcher(testConfig(), client, testLogger(), nil)

	// Enqueue before the loop starts so ordering is fully determined.
	chA, err := d.Submit(testPrompt("normal-a"), model.PriorityNormal, time.Second)
	require.NoError(t, err)
	chB, err := d.Submit(testPrompt("normal-b"), model.PriorityNormal, time.Second)
	require.NoError(t, err)
	chC, err := d.Submit(testPrompt("high-c"), model.PriorityHigh, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	defer func() {
		cancel()
		d.Wait()
	}()

	<-chA
	<-chB
	<-chC

	order := client.promptOrder()
	require.Len(t, order, 3)
	assert.Equal(t, "high-c", order[0], "high priority dispatches first")
	assert.Equal(t, "normal-a", order[1], "equal priorities keep submission order")
	assert.Equal(t, "normal-b", order[2])
}

func TestDispatchTransientRetries(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &gemini.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}},
		{err: &gemini.APIError{StatusCode: http.StatusServiceUnavailable, Message: "boom"}},
		{text: "recovered"},
	}}
	d, stop := newTestDispatcher(testConfig(), client)
	defer stop()

	res, err := d.Dispatch(context.Background(), testPrompt("p"), model.PriorityNormal, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Text)
	assert.Equal(t, 2, res.Retries)
}

func TestDispatchRetriesExhausted(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &gemini.APIError{StatusCode: http.StatusInternalServerError, Message: "down"}},
	}}
	cfg := testConfig()
	cfg.MaxRetries = 2
	d, stop := newTestDispatcher(cfg, client)
	defer stop()

	_, err := d.Dispatch(context.Background(), testPrompt("p"), model.PriorityNormal, time.Second)
	require.Error(t, err)

	var dispErr *DispatchError
	require.ErrorAs(t, err, &dispErr)
	assert.Equal(t, ReasonExhausted, dispErr.Reason)
	assert.Equal(t, 2, dispErr.Retries)
	assert.Equal(t, 3, client.callCount(), "initial attempt plus two retries")
}

func TestDispatchAuthFailureIsTerminal(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &gemini.APIError{StatusCode: http.StatusUnauthorized, Message: "bad key"}},
	}}
	d, stop := newTestDispatcher(testConfig(), client)
	defer stop()

	_, err := d.Dispatch(context.Background(), testPrompt("p"), model.PriorityNormal, time.Second)
	require.Error(t, err)

	var dispErr *DispatchError
	require.ErrorAs(t, err, &dispErr)
	assert.Equal(t, ReasonAuth, dispErr.Reason)
	assert.Equal(t, 1, client.callCount(), "auth failures must not be retried")
}

func TestDispatchRateLimitDoesNotConsumeRetries(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &gemini.APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Millisecond}},
		{err: &gemini.APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Millisecond}},
		{text: "after throttle"},
	}}
	d, stop := newTestDispatcher(testConfig(), client)
	defer stop()

	res, err := d.Dispatch(context.Background(), testPrompt("p"), model.PriorityNormal, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "after throttle", res.Text)
	assert.Equal(t, 0, res.Retries, "server throttles are waits, not retries")
	assert.Equal(t, 3, client.callCount())
}

func TestDispatchQueueTimeout(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d := NewDispatcher(testConfig(), client, testLogger(), nil)

	ch, err := d.Submit(testPrompt("stale"), model.PriorityNormal, 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	defer func() {
		cancel()
		d.Wait()
	}()

	outcome := <-ch
	require.Error(t, outcome.Err)
	var dispErr *DispatchError
	require.ErrorAs(t, outcome.Err, &dispErr)
	assert.Equal(t, ReasonQueueTimeout, dispErr.Reason)
	assert.Equal(t, 0, client.callCount())
}

func TestDispatchQueueCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.QueueCapacity = 1
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d := NewDispatcher(cfg, client, testLogger(), nil)

	_, err := d.Submit(testPrompt("first"), model.PriorityNormal, time.Second)
	require.NoError(t, err)

	_, err = d.Submit(testPrompt("second"), model.PriorityNormal, time.Second)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestDispatchUnderRateBudget(t *testing.T) {
	// More submissions than the per-minute budget: the surplus must be
	// rejected with a typed error, never silently dropped.
	cfg := testConfig()
	cfg.MaxPerMinute = 2
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d, stop := newTestDispatcher(cfg, client)
	defer stop()

	var delivered, rejected int
	var channels []<-chan Outcome
	for i := 0; i < 5; i++ {
		ch, err := d.Submit(testPrompt("p"), model.PriorityNormal, 50*time.Millisecond)
		require.NoError(t, err)
		channels = append(channels, ch)
	}
	for _, ch := range channels {
		outcome := <-ch
		if outcome.Err != nil {
			var dispErr *DispatchError
			require.ErrorAs(t, outcome.Err, &dispErr)
			assert.Equal(t, ReasonQueueTimeout, dispErr.Reason)
			assert.True(t, dispErr.RateLimited)
			rejected++
		} else {
			delivered++
		}
	}

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 3, rejected)
}

func TestDispatchShutdownRejectsPending(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d := NewDispatcher(testConfig(), client, testLogger(), nil)

	ch, err := d.Submit(testPrompt("pending"), model.PriorityNormal, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go d.Start(ctx)
	d.Wait()

	outcome := <-ch
	require.Error(t, outcome.Err)
	var dispErr *DispatchError
	require.ErrorAs(t, outcome.Err, &dispErr)
	assert.Equal(t, ReasonShutdown, dispErr.Reason)

	_, err = d.Submit(testPrompt("late"), model.PriorityNormal, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatchCancelledContextNeverDispatches(t *testing.T) {
	// With both a pending wake signal and a cancelled context the loop must
	// always reject the queue, regardless of which select branch fires.
	for i := 0; i < 25; i++ {
		client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
		d := NewDispatcher(testConfig(), client, testLogger(), nil)

		ch, err := d.Submit(testPrompt("pending"), model.PriorityNormal, time.Second)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		go d.Start(ctx)
		d.Wait()

		outcome := <-ch
		require.Error(t, outcome.Err)
		var dispErr *DispatchError
		require.ErrorAs(t, outcome.Err, &dispErr)
		assert.Equal(t, ReasonShutdown, dispErr.Reason)
		assert.Equal(t, 0, client.callCount(), "no item may dispatch after cancellation")
	}
}

func TestSubmitRejectsInvalidPrompt(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{text: "ok"}}}
	d := NewDispatcher(testConfig(), client, testLogger(), nil)

	_, err := d.Submit(&model.MedicalPrompt{}, model.PriorityNormal, time.Second)
	assert.Error(t, err)
}
