package host

import (
	"context"
	"sync"
	"time"

	"navplug.szuro.net/pkg/signalk"
)

// Router queues events and hands them to deliver one at a time, in the
// order they were published.
type Router struct {
	queue   chan signalk.Event
	deliver func(signalk.Event)
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewRouter(size int, deliver func(signalk.Event)) *Router {
	return &Router{
		queue:   make(chan signalk.Event, size),
		deliver: deliver,
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

func (r *Router) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case e := <-r.queue:
				queueUsage.Set(float64(len(r.queue)))
				r.deliver(e)
			case <-r.done:
				return
			}
		}
	}()
}

// Stop ends delivery. Events still queued are discarded.
func (r *Router) Stop() {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
}

func (r *Router) stamp(e signalk.Event) signalk.Event {
	if e.Timestamp == 0 {
		e.Timestamp = r.now().UnixMilli()
	}
	return e
}

// Publish queues e without blocking. It reports false when the queue is
// full or the router is stopped.
func (r *Router) Publish(e signalk.Event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.queue <- r.stamp(e):
		queueUsage.Set(float64(len(r.queue)))
		return true
	default:
		eventsDropped.WithLabelValues("queue_full").Inc()
		return false
	}
}

// PublishWait queues e, waiting for room until ctx is done.
func (r *Router) PublishWait(ctx context.Context, e signalk.Event) error {
	select {
	case r.queue <- r.stamp(e):
		queueUsage.Set(float64(len(r.queue)))
		return nil
	case <-r.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}
