package orchestrator

import (
	"sync"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

const subscriberBuffer = 64

// hub fans progress events out to subscribers. Slow subscribers miss events
// rather than block the run loop.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan model.ProgressEvent
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan model.ProgressEvent)}
}

func (h *hub) subscribe() (<-chan model.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan model.ProgressEvent, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *hub) publish(ev model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
