package chat

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient, user-visible toast. It travels beside the
// conversation transcript, never through it.
type Notification struct {
	Level Level
	Title string
	Body  string
	At    time.Time
}

// Notifier fans notifications out to every current subscriber. Publishing
// never blocks: a subscriber that stops draining its channel misses
// notifications rather than stalling the exchange that produced them.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan Notification
	next int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Notification)}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (n *Notifier) Subscribe() (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan Notification, 8)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers note to every subscriber that has buffer room.
func (n *Notifier) Publish(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- note:
		default:
		}
	}
}
