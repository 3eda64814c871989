package dispatch

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jwalitptl/consult-api/internal/config"
	"github.com/jwalitptl/consult-api/internal/gemini"
	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/pkg/logger"
	"github.com/jwalitptl/consult-api/pkg/metrics"
)

var (
	// ErrClosed is returned when submitting to a stopped dispatcher.
	ErrClosed = errors.New("dispatcher is shut down")
	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("dispatch queue is full")
)

// FailureReason classifies a terminal dispatch failure.
type FailureReason string

const (
	ReasonAuth         FailureReason = "auth"
	ReasonExhausted    FailureReason = "retries_exhausted"
	ReasonQueueTimeout FailureReason = "queue_timeout"
	ReasonDeadline     FailureReason = "deadline"
	ReasonShutdown     FailureReason = "shutdown"
)

// DispatchError is the typed failure returned after the dispatcher gives up
// on a request. RateLimited records whether the last failure was
// rate-limit-induced.
type DispatchError struct {
	Reason      FailureReason
	RateLimited bool
	Retries     int
	Err         error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed (%s after %d retries): %v", e.Reason, e.Retries, e.Err)
	}
	return fmt.Sprintf("dispatch failed (%s after %d retries)", e.Reason, e.Retries)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Result is a successful dispatch.
type Result struct {
	Text    string
	Model   string
	Elapsed time.Duration
	Retries int
}

// Outcome resolves a submitted request: exactly one of Result or Err is set.
type Outcome struct {
	Result *Result
	Err    error
}

// Dispatcher delivers prompts to the generative service under rate and
// latency constraints. It carries the only persistent mutable state in the
// pipeline: construct one at process start and share it across callers.
type Dispatcher struct {
	cfg     config.DispatcherConfig
	client  gemini.Client
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	queue  priorityQueue
	seq    uint64
	closed bool

	budget *rateBudget
	wake   chan struct{}
	done   chan struct{}
}

func NewDispatcher(cfg config.DispatcherConfig, client gemini.Client, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		client:  client,
		logger:  log,
		metrics: m,
		budget:  newRateBudget(cfg.MaxPerMinute, cfg.MaxPerHour, time.Now()),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Submit enqueues a prompt and returns a channel resolved by the processing
// loop. The caller must read the channel exactly once; it is buffered so the
// loop never blocks on resolution.
func (d *Dispatcher) Submit(prompt *model.MedicalPrompt, priority model.Priority, timeout time.Duration) (<-chan Outcome, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = d.cfg.DefaultTimeout
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if d.cfg.QueueCapacity > 0 && d.queue.Len() >= d.cfg.QueueCapacity {
		d.mu.Unlock()
		return nil, ErrQueueFull
	}
	d.seq++
	item := &queueItem{
		prompt:     prompt,
		priority:   priority,
		timeout:    timeout,
		enqueuedAt: time.Now(),
		result:     make(chan Outcome, 1),
		seq:        d.seq,
	}
	heap.Push(&d.queue, item)
	depth := d.queue.Len()
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Set(float64(depth))
	}

	// Non-blocking wake: a pending signal already covers this item.
	select {
	case d.wake <- struct{}{}:
	default:
	}

	return item.result, nil
}

// Dispatch submits and waits for resolution or context cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt *model.MedicalPrompt, priority model.Priority, timeout time.Duration) (*Result, error) {
	ch, err := d.Submit(prompt, priority, timeout)
	if err != nil {
		return nil, err
	}
	select {
	case outcome := <-ch:
		return outcome.Result, outcome.Err
	case <-ctx.Done():
		// The queued item still resolves eventually; the caller stops waiting.
		return nil, ctx.Err()
	}
}

// Budget reports current rate-window usage.
func (d *Dispatcher) Budget() BudgetSnapshot {
	return d.budget.snapshot(time.Now())
}

// QueueDepth reports the number of waiting requests.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Start runs the processing loop until ctx is cancelled, then rejects all
// pending items. It is the only reader/remover of queue items and the only
// writer of rate-budget state.
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.done)
	d.logger.Info("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case <-d.wake:
		}

		for {
			// Cancellation between items wins over remaining queue work, even
			// when a wake signal raced the context.
			if ctx.Err() != nil {
				d.shutdown()
				return
			}
			item := d.pop()
			if item == nil {
				break
			}
			if !d.process(ctx, item) {
				d.shutdown()
				return
			}
		}
	}
}

// Wait blocks until the processing loop has fully stopped.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) pop() *queueItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue.Len() == 0 {
		return nil
	}
	item := heap.Pop(&d.queue).(*queueItem)
	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Set(float64(d.queue.Len()))
	}
	return item
}

// process handles one dequeued item. It returns false when ctx was
// cancelled mid-item and the loop should stop.
func (d *Dispatcher) process(ctx context.Context, item *queueItem) bool {
	// Items that aged out while queued are rejected without dispatch.
	if time.Since(item.enqueuedAt) >= item.timeout {
		if d.metrics != nil {
			d.metrics.DispatchQueueTimeouts.Inc()
		}
		item.result <- Outcome{Err: &DispatchError{
			Reason: ReasonQueueTimeout,
			Err:    fmt.Errorf("request expired after %s in queue", time.Since(item.enqueuedAt).Round(time.Millisecond)),
		}}
		return true
	}

	// Wait out the rate budget before dispatching, bounded by the item's
	// own deadline.
	for {
		ok, wait := d.budget.reserve(time.Now())
		if ok {
			break
		}
		if d.metrics != nil {
			d.metrics.DispatchThrottled.Inc()
		}
		deadline := item.enqueuedAt.Add(item.timeout)
		if remaining := time.Until(deadline); wait >= remaining {
			if d.metrics != nil {
				d.metrics.DispatchQueueTimeouts.Inc()
			}
			item.result <- Outcome{Err: &DispatchError{
				Reason:      ReasonQueueTimeout,
				RateLimited: true,
				Err:         fmt.Errorf("rate budget will not free before request deadline"),
			}}
			return true
		}
		if !d.sleep(ctx, wait) {
			item.result <- Outcome{Err: &DispatchError{Reason: ReasonShutdown, Err: ErrClosed}}
			return false
		}
	}

	outcome := d.attempt(ctx, item)
	item.result <- outcome
	return ctx.Err() == nil
}

// attempt calls the generative service with retries. Transient failures use
// exponential backoff with jitter; rate-limit rejections wait out the
// advertised (or configured) cool-down without consuming a retry slot;
// authentication failures are terminal.
func (d *Dispatcher) attempt(ctx context.Context, item *queueItem) Outcome {
	started := time.Now()
	deadline := item.enqueuedAt.Add(item.timeout)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.cfg.InitialBackoff
	bo.MaxInterval = d.cfg.MaxBackoff
	bo.MaxElapsedTime = 0 // the item deadline bounds the attempt instead
	bo.Reset()

	var retries int
	var lastErr error
	var rateLimited bool

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if d.metrics != nil {
				d.metrics.DispatchFailures.WithLabelValues(string(ReasonDeadline)).Inc()
			}
			return Outcome{Err: &DispatchError{
				Reason:      ReasonDeadline,
				RateLimited: rateLimited,
				Retries:     retries,
				Err:         firstErr(lastErr, context.DeadlineExceeded),
			}}
		}

		callCtx, cancel := context.WithTimeout(ctx, remaining)
		res, err := d.client.GenerateConsultation(callCtx, item.prompt)
		cancel()

		if err == nil {
			elapsed := time.Since(started)
			if d.metrics != nil {
				d.metrics.DispatchLatency.Observe(elapsed.Seconds())
			}
			return Outcome{Result: &Result{
				Text:    res.Text,
				Model:   res.Model,
				Elapsed: elapsed,
				Retries: retries,
			}}
		}
		lastErr = err

		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			if apiErr.IsAuth() {
				if d.metrics != nil {
					d.metrics.DispatchFailures.WithLabelValues(string(ReasonAuth)).Inc()
				}
				return Outcome{Err: &DispatchError{
					Reason:  ReasonAuth,
					Retries: retries,
					Err:     err,
				}}
			}
			if apiErr.IsRateLimit() {
				// Server-side throttle: wait out the cool-down without
				// consuming a retry slot.
				rateLimited = true
				if d.metrics != nil {
					d.metrics.DispatchRetries.WithLabelValues("rate_limit").Inc()
				}
				cooloff := apiErr.RetryAfter
				if cooloff <= 0 {
					cooloff = d.cfg.RateLimitCooloff
				}
				if cooloff >= time.Until(deadline) {
					if d.metrics != nil {
						d.metrics.DispatchFailures.WithLabelValues(string(ReasonExhausted)).Inc()
					}
					return Outcome{Err: &DispatchError{
						Reason:      ReasonExhausted,
						RateLimited: true,
						Retries:     retries,
						Err:         err,
					}}
				}
				if !d.sleep(ctx, cooloff) {
					return Outcome{Err: &DispatchError{Reason: ReasonShutdown, Retries: retries, Err: ErrClosed}}
				}
				continue
			}
		}

		// Transient failure: network fault, timeout or 5xx.
		retries++
		if retries > d.cfg.MaxRetries {
			if d.metrics != nil {
				d.metrics.DispatchFailures.WithLabelValues(string(ReasonExhausted)).Inc()
			}
			return Outcome{Err: &DispatchError{
				Reason:      ReasonExhausted,
				RateLimited: rateLimited,
				Retries:     retries - 1,
				Err:         lastErr,
			}}
		}
		if d.metrics != nil {
			d.metrics.DispatchRetries.WithLabelValues("transient").Inc()
		}
		if !d.sleep(ctx, bo.NextBackOff()) {
			return Outcome{Err: &DispatchError{Reason: ReasonShutdown, Retries: retries, Err: ErrClosed}}
		}
	}
}

// sleep waits for the given duration or returns false on cancellation.
func (d *Dispatcher) sleep(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		return true
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (d *Dispatcher) shutdown() {
	d.mu.Lock()
	d.closed = true
	pending := make([]*queueItem, 0, d.queue.Len())
	for d.queue.Len() > 0 {
		pending = append(pending, heap.Pop(&d.queue).(*queueItem))
	}
	d.mu.Unlock()

	for _, item := range pending {
		item.result <- Outcome{Err: &DispatchError{Reason: ReasonShutdown, Err: ErrClosed}}
	}
	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Set(0)
	}
	d.logger.Info("dispatcher stopped", "rejected_pending", len(pending))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
