package engine

import (
	"sync"

	"github.com/raykavin/niftybot/core"
)

// signalCap bounds the in-memory signal history
const signalCap = 500

// signalLog is a fixed-capacity FIFO of the most recent signal events
type signalLog struct {
	mu     sync.RWMutex
	events []core.SignalEvent
}

func (l *signalLog) append(signal core.SignalEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, signal)
	if len(l.events) > signalCap {
		l.events = l.events[len(l.events)-signalCap:]
	}
}

// last returns up to limit retained events, oldest first. An empty symbol
// matches every event; limit <= 0 returns everything retained.
func (l *signalLog) last(symbol string, limit int) []core.SignalEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]core.SignalEvent, 0, len(l.events))
	for _, e := range l.events {
		if symbol == "" || e.Symbol == symbol {
			matched = append(matched, e)
		}
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

func (l *signalLog) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
