// Package queue serializes outbound provider requests.
//
// A Queue accepts any number of concurrent callers. Each request is appended
// to a FIFO list and a single worker goroutine drains it one item at a time:
// dispatch, settle the caller's Future, then wait a fixed interval before the
// next dispatch. The interval is paid after failures too, so sustained
// throughput never exceeds one request per interval.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"marketbrowser/internal/metrics"
)

// ErrClosed is returned for requests that were still waiting when the queue closed.
var ErrClosed = errors.New("request queue closed")

// Request describes one provider call.
type Request struct {
	Method string
	Path   string
	Params map[string]string
}

// Function returns the provider function name carried in the parameters, if any.
func (r Request) Function() string {
	return r.Params["function"]
}

// Response is the raw outcome of a dispatched Request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Dispatcher performs a single request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Response, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, req Request) (*Response, error)

// Dispatch implements Dispatcher
func (f DispatcherFunc) Dispatch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Future is the completion slot of a queued request.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) settle(resp *Response, err error) {
	f.resp = resp
	f.err = err
	close(f.done)
}

// Wait blocks until the request is settled or ctx is done.
// Giving up on the wait does not remove the request from the queue.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type item struct {
	req    Request
	future *Future
}

// Queue is a rate-limited FIFO request queue with at most one active drain loop.
type Queue struct {
	dispatcher Dispatcher
	interval   time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	items   []item
	running bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMetrics reports dispatch outcomes and queue depth.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// New creates a Queue that dispatches through d, spacing dispatches by interval.
func New(d Dispatcher, interval time.Duration, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		dispatcher: d,
		interval:   interval,
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends req and returns its Future. The drain loop is started only
// if it is not already running.
func (q *Queue) Enqueue(req Request) *Future {
	f := newFuture()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.settle(nil, ErrClosed)
		return f
	}
	q.items = append(q.items, item{req: req, future: f})
	q.metrics.SetQueueDepth(len(q.items))
	// started under mu so that Close never waits while a drain is being added
	if !q.running {
		q.running = true
		q.wg.Go(q.drain)
	}
	q.mu.Unlock()
	return f
}

// Do enqueues req and waits for its outcome.
func (q *Queue) Do(ctx context.Context, req Request) (*Response, error) {
	return q.Enqueue(req).Wait(ctx)
}

// Len returns the number of requests waiting to be dispatched.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the drain loop and rejects every request still waiting with ErrClosed.
// A request already in flight sees its context cancelled.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.items
	q.items = nil
	q.metrics.SetQueueDepth(0)
	q.mu.Unlock()

	q.cancel()
	for _, it := range pending {
		it.future.settle(nil, ErrClosed)
	}
	q.wg.Wait()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 || q.closed {
			q.running = false
			q.mu.Unlock()
			return
		}
		next := q.items[0]
		q.items[0] = item{}
		q.items = q.items[1:]
		q.metrics.SetQueueDepth(len(q.items))
		q.mu.Unlock()

		resp, err := q.dispatch(next.req)
		if err != nil {
			q.logger.Debug("queued request failed",
				"function", next.req.Function(),
				"error", err)
		}
		q.metrics.Dispatched(err)
		next.future.settle(resp, err)

		if !q.pause() {
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			return
		}
	}
}

// dispatch runs one request, turning a panic into an error for that request only.
func (q *Queue) dispatch(req Request) (resp *Response, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		resp, err = q.dispatcher.Dispatch(q.ctx, req)
	})
	if r := pc.Recovered(); r != nil {
		return nil, fmt.Errorf("dispatch %s: %w", req.Function(), r.AsError())
	}
	return resp, err
}

// pause waits for the inter-request interval. It returns false if the queue closed meanwhile.
func (q *Queue) pause() bool {
	if q.interval <= 0 {
		return q.ctx.Err() == nil
	}
	timer := time.NewTimer(q.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-q.ctx.Done():
		return false
	}
}
