package events

import (
	"sync"
)

// Journal is the in-memory event store backing the run audit trail
type Journal struct {
	mutex       sync.RWMutex
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	allEvents   []Event
}

// NewJournal creates an empty journal
func NewJournal() *Journal {
	return &Journal{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
	}
}

// Verify interface compliance
var _ EventStore = (*Journal)(nil)

// AppendEvent versions the event within its stream and notifies
// subscribers asynchronously
func (j *Journal) AppendEvent(streamID string, event Event) error {
	j.mutex.Lock()
	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(j.streams[streamID]) + 1,
	}
	j.streams[streamID] = append(j.streams[streamID], versioned)
	j.allEvents = append(j.allEvents, versioned)
	handlers := j.subscribers[versioned.EventType]
	j.mutex.Unlock()

	for _, handler := range handlers {
		if handler.CanHandle(versioned.EventType) {
			go func(h EventHandler) { _ = h.Handle(versioned) }(handler)
		}
	}
	return nil
}

// ReadEvents returns a stream's events starting at fromVersion (1-based)
func (j *Journal) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	stream := j.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}
	out := make([]Event, len(stream)-fromVersion+1)
	copy(out, stream[fromVersion-1:])
	return out, nil
}

// ReadAllEvents returns every event from the global position onwards
func (j *Journal) ReadAllEvents(fromPosition int) ([]Event, error) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(j.allEvents) {
		return []Event{}, nil
	}
	out := make([]Event, len(j.allEvents)-fromPosition)
	copy(out, j.allEvents[fromPosition:])
	return out, nil
}

// Subscribe registers a handler for the given event types
func (j *Journal) Subscribe(eventTypes []string, handler EventHandler) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	for _, eventType := range eventTypes {
		j.subscribers[eventType] = append(j.subscribers[eventType], handler)
	}
	return nil
}
