package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
	"github.com/mealvilla/staff-portal/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deliverTimeout = 5 * time.Second
)

// ErrQueueFull is returned by Emit when the target worker has no room left.
var ErrQueueFull = errors.New("notification queue full")

// Dispatcher delivers notifications off the request path. Notifications are
// sharded by recipient, so one recipient's feed items are written in the
// order they were emitted.
type Dispatcher struct {
	workers []chan domain.Notification
	sink    ports.Notifier
	log     zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers writing
// to sink. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled
// or after Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the queues and waits for workers to flush what is buffered.
// Emit must not be called after Stop.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		for _, ch := range d.workers {
			close(ch)
		}
	})
	d.wg.Wait()
}

// Emit queues n without blocking. A full queue drops the notification.
func (d *Dispatcher) Emit(_ context.Context, n domain.Notification) error {
	idx := d.shardIndex(recipientKey(n))
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		metrics.NotificationsEmittedTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Int("worker_id", idx).Str("title", n.Title).Msg("notification dropped, queue full")
		return ErrQueueFull
	}
}

func recipientKey(n domain.Notification) string {
	if n.RecipientUID != "" {
		return n.RecipientUID
	}
	return string(n.RecipientRole)
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.deliver(ctx, id, n)
		}
	}
}

// deliver detaches from the caller's request context, which has usually
// ended by the time the worker picks the item up.
func (d *Dispatcher) deliver(ctx context.Context, id int, n domain.Notification) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()

	if err := d.sink.Emit(dctx, n); err != nil {
		d.log.Error().Err(err).
			Str("recipient_role", string(n.RecipientRole)).
			Int("worker_id", id).
			Msg("notification delivery failed")
	}
}
