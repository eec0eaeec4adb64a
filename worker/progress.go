package worker

import "sync"

// ProgressHub fans pass results out to live subscribers. Slow subscribers
// miss updates instead of blocking dispatch.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[chan PassResult]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[chan PassResult]struct{})}
}

// Subscribe returns a channel of pass results and a func that unsubscribes
// and closes it.
func (h *ProgressHub) Subscribe() (<-chan PassResult, func()) {
	ch := make(chan PassResult, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *ProgressHub) Publish(result PassResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- result:
		default:
		}
	}
}

// Subscribers reports how many listeners are attached
func (h *ProgressHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
