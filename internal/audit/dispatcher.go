package audit

import (
	"context"
	"sync"
	"time"

	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
)

type Event struct {
	ActorID  *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

const queueSize = 100

// Dispatcher writes audit events on a background worker so a slow or
// failing audit table never affects the request.
type Dispatcher struct {
	logger *Logger
	log    logger.Logger
	queue  chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(auditLogger *Logger, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		logger: auditLogger,
		log:    log,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.logger.Log(ctx, ev); err != nil {
			d.log.WithFields(map[string]interface{}{
				"action": ev.Action,
				"error":  err.Error(),
			}).Error("audit write failed")
		}
		cancel()
	}
}

// Dispatch never blocks; events are dropped when the queue is full.
// A nil Dispatcher discards events.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.log.WithField("action", ev.Action).Warn("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func UintPtr(v uint) *uint {
	return &v
}
