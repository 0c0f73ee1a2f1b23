package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

var _ EventStore = (*MemoryEventStore)(nil)

// MemoryEventStore keeps plan events in process memory, one stream per sales order.
// Subscribers run synchronously after the append, outside the store lock, in
// subscription order.
type MemoryEventStore struct {
	mu          sync.RWMutex
	streams     map[string][]Event
	log         []Event
	subscribers map[string][]EventHandler
}

// NewMemoryEventStore creates an empty store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		streams:     make(map[string][]Event),
		log:         make([]Event, 0),
		subscribers: make(map[string][]EventHandler),
	}
}

// AppendEvent stamps event with the next version of streamID and stores it
func (s *MemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	stored := BaseEvent{
		EventID:      event.ID(),
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], stored)
	s.log = append(s.log, stored)
	handlers := append([]EventHandler(nil), s.subscribers[stored.EventType]...)
	s.mu.Unlock()

	for _, handler := range handlers {
		if !handler.CanHandle(stored.EventType) {
			continue
		}
		if err := handler.Handle(stored); err != nil {
			log.Warn().Err(err).
				Str("event_type", stored.EventType).
				Str("stream_id", streamID).
				Msg("event handler failed")
		}
	}
	return nil
}

// ReadEvents returns the events of streamID starting at version fromVersion (1-based)
func (s *MemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}
	return append([]Event(nil), stream[fromVersion-1:]...), nil
}

// ReadAllEvents returns every event starting at the 0-based global position
func (s *MemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.log) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.log[fromPosition:]...), nil
}

// Subscribe registers handler for the given event types
func (s *MemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes handler from every event type
func (s *MemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}
