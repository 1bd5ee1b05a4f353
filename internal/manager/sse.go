package manager

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types published by the managers.
const (
	EventRequestFiled   = "request.filed"
	EventRequestSolved  = "request.solved"
	EventResponsePosted = "response.posted"
)

// Event announces a state change to stream subscribers.
type Event struct {
	Type        string    `json:"type"`
	RequestID   int64     `json:"requestId"`
	RequesterID int64     `json:"requesterId"`
	ResponseID  int64     `json:"responseId,omitempty"`
	At          time.Time `json:"-"`
}

// MarshalJSON writes At as epoch milliseconds, like every other helpdesk
// timestamp on the wire.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		At int64 `json:"at"`
	}{plain(e), e.At.UnixMilli()})
}

// Broker fans events out to subscribers. Slow subscribers miss events
// rather than block publishers.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan Event]struct{}),
	}
}

func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish is a no-op on a nil Broker.
func (b *Broker) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}
