package engine

import (
	"sync"

	"github.com/StudioSol/set"

	"github.com/raykavin/niftybot/core"
)

// feedBuffer is the per-symbol channel depth before events are dropped
const feedBuffer = 100

// FeedConsumer processes published signal events
type FeedConsumer func(signal core.SignalEvent)

// SignalFeed fans signal events out to per-symbol consumers without ever
// blocking the scan loop. Subscriptions must be registered before Start;
// Stop must only be called once the publisher has gone quiet.
type SignalFeed struct {
	mu            sync.RWMutex
	symbols       *set.LinkedHashSetString
	channels      map[string]chan core.SignalEvent
	subscriptions map[string][]FeedConsumer
	started       bool
}

func NewSignalFeed() *SignalFeed {
	return &SignalFeed{
		symbols:       set.NewLinkedHashSetString(),
		channels:      make(map[string]chan core.SignalEvent),
		subscriptions: make(map[string][]FeedConsumer),
	}
}

// Subscribe registers consumer for the symbol's signal events
func (f *SignalFeed) Subscribe(symbol string, consumer FeedConsumer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.symbols.InArray(symbol) {
		f.symbols.Add(symbol)
		f.channels[symbol] = make(chan core.SignalEvent, feedBuffer)
	}
	f.subscriptions[symbol] = append(f.subscriptions[symbol], consumer)
}

// Start launches one delivery goroutine per subscribed symbol
func (f *SignalFeed) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return
	}
	f.started = true

	for symbol := range f.symbols.Iter() {
		go f.pump(symbol, f.channels[symbol])
	}
}

func (f *SignalFeed) pump(symbol string, events chan core.SignalEvent) {
	for signal := range events {
		f.mu.RLock()
		consumers := f.subscriptions[symbol]
		f.mu.RUnlock()

		for _, consumer := range consumers {
			consumer(signal)
		}
	}
}

// Publish hands the event to the symbol's delivery channel. Events for
// symbols without subscribers, or beyond the buffer, are dropped.
func (f *SignalFeed) Publish(signal core.SignalEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ch, ok := f.channels[signal.Symbol]
	if !ok {
		return
	}

	select {
	case ch <- signal:
	default:
	}
}

// Stop closes every delivery channel and clears the subscriptions
func (f *SignalFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for symbol, ch := range f.channels {
		close(ch)
		delete(f.channels, symbol)
	}
	f.symbols = set.NewLinkedHashSetString()
	f.subscriptions = make(map[string][]FeedConsumer)
	f.started = false
}
