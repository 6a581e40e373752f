// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package mapevents

import (
	"sync"

	"github.com/juju/pubsub/v2"
	"gopkg.in/tomb.v2"

	"github.com/juju/mapset/registry"
)

// eventBuffer is how many undelivered events a watcher holds before it
// starts dropping. A consumer that falls this far behind is getting a
// resync-worthy view anyway.
const eventBuffer = 64

// EventWatcher converts the hub's lifecycle topics back into a single
// ordered channel of registry events. It implements worker.Worker, so
// it can be killed and waited on like any other worker.
type EventWatcher struct {
	tomb    tomb.Tomb
	changes chan registry.Event
	// We can't send down a closed channel, so protect the sending
	// with a mutex and bool. Since you can't really even ask a channel
	// if it is closed.
	closed bool
	mu     sync.Mutex
}

// NewEventWatcher returns a watcher subscribed to every lifecycle topic
// on hub.
func NewEventWatcher(hub *pubsub.SimpleHub) *EventWatcher {
	w := &EventWatcher{
		changes: make(chan registry.Event, eventBuffer),
	}
	unsubs := []func(){
		hub.Subscribe(RegisteredTopic, w.onRegistered),
		hub.Subscribe(UpdatedTopic, w.onUpdated),
		hub.Subscribe(DeregisteredTopic, w.onDeregistered),
	}
	w.tomb.Go(func() error {
		<-w.tomb.Dying()
		for _, unsub := range unsubs {
			unsub()
		}
		return nil
	})
	return w
}

// Changes returns the event channel. The channel is buffered; if the
// consumer falls more than eventBuffer events behind, further events
// are dropped with a warning until it catches up. The channel is closed
// when the watcher is killed.
func (w *EventWatcher) Changes() <-chan registry.Event {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *EventWatcher) Kill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	// The watcher must be dying or dead before we close the channel.
	// Otherwise readers could fail, but the watcher's tomb would
	// indicate "still alive".
	w.tomb.Kill(nil)
	w.closed = true
	close(w.changes)
}

// Wait is part of the worker.Worker interface.
func (w *EventWatcher) Wait() error {
	return w.tomb.Wait()
}

func (w *EventWatcher) onRegistered(topic string, data interface{}) {
	msg, ok := data.(RegisteredMessage)
	if !ok {
		logger.Criticalf("programming error: topic %q data expected RegisteredMessage, got %T", topic, data)
		return
	}
	w.send(registry.Event{Kind: registry.EventRegistered, File: msg.File})
}

func (w *EventWatcher) onUpdated(topic string, data interface{}) {
	msg, ok := data.(UpdatedMessage)
	if !ok {
		logger.Criticalf("programming error: topic %q data expected UpdatedMessage, got %T", topic, data)
		return
	}
	w.send(registry.Event{Kind: registry.EventUpdated, File: msg.File, Old: msg.Old})
}

func (w *EventWatcher) onDeregistered(topic string, data interface{}) {
	msg, ok := data.(DeregisteredMessage)
	if !ok {
		logger.Criticalf("programming error: topic %q data expected DeregisteredMessage, got %T", topic, data)
		return
	}
	w.send(registry.Event{Kind: registry.EventDeregistered, File: msg.File})
}

func (w *EventWatcher) send(event registry.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.changes <- event:
	default:
		logger.Warningf("dropping %v event for %v, watcher buffer full", event.Kind, event.File)
	}
}
