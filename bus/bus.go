// Package bus implements the §4.7 Live Progress Bus: a keyed,
// multi-subscriber broadcaster that lets the benchmark orchestrator
// emit progress events for a run while zero or more HTTP/WebSocket
// clients watch it live.
//
// Generalized from the teacher's internal/channel.TunableChannel — a
// single buffered channel with its own send/receive/stats surface —
// into a registry of per-run, per-subscriber buffered channels. Unlike
// the teacher's channel, a Bus subscriber channel never resizes itself
// (runs are short-lived and bursty, not sustained enough to justify
// the teacher's auto-tuning machinery); it keeps the teacher's
// non-blocking-send-with-drop discipline instead.
package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageType is the closed set of event shapes §4.7 defines.
type MessageType string

const (
	MessageProgress MessageType = "progress"
	MessageResult   MessageType = "result"
	MessageComplete MessageType = "complete"
	MessageError    MessageType = "error"
	messagePing     MessageType = "ping"
)

// Message is one event published on a run's channel.
type Message struct {
	Type     MessageType `json:"type"`
	Status   string      `json:"status,omitempty"`
	ModelID  string      `json:"model_id,omitempty"`
	TTFTMS   float64     `json:"ttft_ms,omitempty"`
	TPS      float64     `json:"tps,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// isTerminal reports whether receiving this message should cause the
// bus to close every subscriber of the run — §4.7's "terminal message
// auto-close" rule.
func (m Message) isTerminal() bool {
	return m.Type == MessageComplete || m.Type == MessageError
}

const (
	subscriberBuffer = 32
	pingInterval     = 30 * time.Second
)

type subscriber struct {
	id   uuid.UUID
	ch   chan Message
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

// Subscription is a live handle a caller reads Message values from
// until Messages is closed (normal end) or the caller calls Unsubscribe
// (early end, e.g. client disconnect).
type Subscription struct {
	runID uuid.UUID
	sub   *subscriber
	bus   *Bus
}

// Messages is the channel to range over; it closes when the run emits
// a terminal message or the subscription is explicitly unsubscribed.
func (s *Subscription) Messages() <-chan Message { return s.sub.ch }

// Bus is a process-wide registry of run_id -> active subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[uuid.UUID]*subscriber
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[uuid.UUID]map[uuid.UUID]*subscriber)}
}

// Subscribe registers a new listener for runID and starts its
// keep-alive ping ticker. The caller must eventually call Unsubscribe
// (typically via defer) if it stops reading before a terminal message
// arrives — e.g. the HTTP client disconnects mid-stream.
func (b *Bus) Subscribe(runID uuid.UUID) *Subscription {
	sub := &subscriber{
		id:   uuid.New(),
		ch:   make(chan Message, subscriberBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = make(map[uuid.UUID]*subscriber)
	}
	b.subs[runID][sub.id] = sub
	b.mu.Unlock()

	go b.keepAlive(runID, sub)

	return &Subscription{runID: runID, sub: sub, bus: b}
}

func (b *Bus) keepAlive(runID uuid.UUID, sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			return
		case <-ticker.C:
			select {
			case sub.ch <- Message{Type: messagePing}:
			default:
				b.unsubscribe(runID, sub)
				return
			}
		}
	}
}

// Publish delivers msg to every current subscriber of runID. Each
// delivery is a non-blocking send: a subscriber whose buffer is full
// is dropped — per §4.7, a slow or stuck client never backpressures
// the orchestrator. A terminal message closes and removes every
// subscriber of the run after delivery.
func (b *Bus) Publish(runID uuid.UUID, msg Message) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs[runID]))
	for _, s := range b.subs[runID] {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- msg:
		default:
			b.unsubscribe(runID, s)
		}
	}

	if msg.isTerminal() {
		b.closeRun(runID)
	}
}

// Unsubscribe removes sub and closes its channel early — used by a
// transport handler when its client disconnects before a terminal
// message arrives.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.unsubscribe(sub.runID, sub.sub)
}

func (b *Bus) unsubscribe(runID uuid.UUID, s *subscriber) {
	b.mu.Lock()
	if m, ok := b.subs[runID]; ok {
		delete(m, s.id)
		if len(m) == 0 {
			delete(b.subs, runID)
		}
	}
	b.mu.Unlock()
	s.close()
}

func (b *Bus) closeRun(runID uuid.UUID) {
	b.mu.Lock()
	subs := b.subs[runID]
	delete(b.subs, runID)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}
