package feed

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// Event is one change delivered to subscribers. Old and New carry the
// before/after snapshots where the change has them.
type Event struct {
	Table string      `json:"table"`
	Type  EventType   `json:"type"`
	Old   interface{} `json:"old,omitempty"`
	New   interface{} `json:"new,omitempty"`
}

type Handler func(Event)

var ErrHubClosed = errors.New("feed: hub is stopped")

// Subscription is the handle returned to a subscriber. Err is set when
// registration itself failed; the handle is then inert.
type Subscription struct {
	id   uint64
	hub  *Hub
	Err  error
	once sync.Once
}

// Unsubscribe removes the subscriber. Safe to call more than once and
// after the hub has stopped.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.hub == nil {
			return
		}
		select {
		case s.hub.unregister <- s.id:
		case <-s.hub.done:
		}
	})
}

type subscriber struct {
	id        uint64
	table     string
	eventType EventType
	handler   Handler
}

// Hub fans change events out to registered handlers. All registry
// mutation and dispatch runs on the single Run goroutine, so handlers
// for one event are invoked in registration order, one at a time, and a
// panicking handler is logged and skipped without breaking delivery to
// the rest.
type Hub struct {
	log        *zap.Logger
	register   chan subscriber
	unregister chan uint64
	events     chan Event
	done       chan struct{}
	stopOnce   sync.Once
	nextID     uint64
	idMu       sync.Mutex
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:        log,
		register:   make(chan subscriber),
		unregister: make(chan uint64),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	subscribers := make(map[uint64]subscriber)
	order := make([]uint64, 0)

	for {
		select {
		case sub := <-h.register:
			subscribers[sub.id] = sub
			order = append(order, sub.id)

		case id := <-h.unregister:
			if _, ok := subscribers[id]; ok {
				delete(subscribers, id)
				for i, sid := range order {
					if sid == id {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
			}

		case ev := <-h.events:
			for _, id := range order {
				sub := subscribers[id]
				if sub.table != ev.Table {
					continue
				}
				if sub.eventType != EventAll && sub.eventType != ev.Type {
					continue
				}
				h.dispatch(sub, ev)
			}

		case <-h.done:
			return
		}
	}
}

// dispatch isolates one handler invocation so a panicking consumer
// cannot take down the delivery loop.
func (h *Hub) dispatch(sub subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("feed handler panicked",
				zap.String("table", ev.Table),
				zap.String("event", string(ev.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	sub.handler(ev)
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribe registers a handler for one table, filtered to a single
// event type ("*" or empty for all). Registration failures are reported
// on the handle, never panicked.
func (h *Hub) Subscribe(table string, eventType EventType, handler Handler) *Subscription {
	if handler == nil {
		return &Subscription{Err: errors.New("feed: nil handler")}
	}
	if table == "" {
		return &Subscription{Err: errors.New("feed: table is required")}
	}
	if eventType == "" {
		eventType = EventAll
	}

	h.idMu.Lock()
	h.nextID++
	id := h.nextID
	h.idMu.Unlock()

	sub := subscriber{id: id, table: table, eventType: eventType, handler: handler}
	select {
	case h.register <- sub:
		return &Subscription{id: id, hub: h}
	case <-h.done:
		return &Subscription{Err: ErrHubClosed}
	}
}

// Publish queues an event for delivery. Events published after Stop are
// dropped; a full queue also drops rather than blocking writers.
func (h *Hub) Publish(ev Event) {
	select {
	case <-h.done:
	case h.events <- ev:
	default:
		h.log.Warn("feed queue full, dropping event",
			zap.String("table", ev.Table),
			zap.String("event", string(ev.Type)),
		)
	}
}
