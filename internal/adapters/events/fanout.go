package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/domain/entities"
)

const subscriberBuffer = 100

// fanout delivers events of each channel to every local subscriber without blocking.
// A subscriber whose buffer is full misses the event.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.QueueEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.QueueEvent]struct{})}
}

// add registers a new subscriber and reports how many the channel now has
func (f *fanout) add(channel string) (chan *entities.QueueEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.QueueEvent]struct{})
	}
	ch := make(chan *entities.QueueEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch, len(f.subscribers[channel])
}

// remove closes one subscriber and reports whether the channel has none left
func (f *fanout) remove(channel string, ch chan *entities.QueueEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}

	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

// drop closes every subscriber of a channel
func (f *fanout) drop(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) broadcast(channel string, event *entities.QueueEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber buffer full, dropping event")
		}
	}
}

func (f *fanout) count(channel string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[channel])
}
