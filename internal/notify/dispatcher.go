package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
	"backoffice-service/internal/common/metrics"
)

// Transport delivers a single message synchronously.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Result is the completion signal for one dispatched message. Callers may
// ignore it (fire-and-forget, the original behavior) or await it.
type Result struct {
	MessageID   string
	Err         error
	CompletedAt time.Time
}

type task struct {
	id     string
	msg    Message
	result chan Result
}

// DispatcherOptions bound the pool. Zero values fall back to small defaults.
type DispatcherOptions struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher sends messages asynchronously through a bounded worker pool.
// Transport failures are logged and counted but never propagated to the
// operation that enqueued the message.
type Dispatcher struct {
	transport   Transport
	logger      logger.Logger
	queue       chan task
	sendTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewDispatcher(transport Transport, opts DispatcherOptions, log logger.Logger) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		transport:   transport,
		logger:      log.WithFields(map[string]interface{}{"component": "notify", "transport": transport.Name()}),
		queue:       make(chan task, queueSize),
		sendTimeout: sendTimeout,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Dispatch validates and enqueues msg, returning without blocking on the
// transport. The returned channel receives exactly one Result and is then
// closed. A full queue fails fast instead of blocking the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (<-chan Result, error) {
	if !isValidEmail(msg.Recipient) {
		return nil, errors.NewValidationFailedError(fmt.Sprintf("invalid recipient email address: %s", msg.Recipient))
	}

	t := task{
		id:     uuid.New().String(),
		msg:    msg,
		result: make(chan Result, 1),
	}

	select {
	case d.queue <- t:
	case <-ctx.Done():
		return nil, errors.NewDispatchFailedError(d.transport.Name(), ctx.Err())
	default:
		metrics.NotificationsFailed.WithLabelValues(d.transport.Name()).Inc()
		return nil, errors.NewDispatchFailedError(d.transport.Name(), fmt.Errorf("dispatch queue full"))
	}

	d.logger.Debug("notification enqueued", map[string]interface{}{
		"messageId": t.id,
		"recipient": msg.Recipient,
		"subject":   msg.Subject,
	})

	return t.result, nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for t := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.transport.Send(ctx, t.msg)
		cancel()

		if err != nil {
			metrics.NotificationsFailed.WithLabelValues(d.transport.Name()).Inc()
			d.logger.Error("notification delivery failed", map[string]interface{}{
				"messageId": t.id,
				"recipient": t.msg.Recipient,
				"error":     err.Error(),
			})
			err = errors.NewDispatchFailedError(d.transport.Name(), err)
		} else {
			metrics.NotificationsSent.WithLabelValues(d.transport.Name()).Inc()
			d.logger.Info("notification delivered", map[string]interface{}{
				"messageId": t.id,
				"recipient": t.msg.Recipient,
			})
		}

		t.result <- Result{MessageID: t.id, Err: err, CompletedAt: time.Now().UTC()}
		close(t.result)
	}
}

// Close drains the queue and stops the workers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
