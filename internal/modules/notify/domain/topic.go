package domain

import (
	"sync"

	"studywarden/internal/modules/notify/dto"
)

// Subscriber owns a bounded queue. When the queue is full the oldest event is
// discarded so publishers never wait on a slow consumer.
type Subscriber struct {
	mu      sync.Mutex
	ch      chan dto.Event
	closed  bool
	dropped uint64
}

func NewSubscriber(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 1
	}
	return &Subscriber{ch: make(chan dto.Event, buffer)}
}

func (s *Subscriber) Events() <-chan dto.Event {
	return s.ch
}

func (s *Subscriber) Offer(event dto.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- event:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Shutdown closes the queue; it is safe to call more than once.
func (s *Subscriber) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Topic is the subscriber set of one profile.
type Topic struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
}

func NewTopic() *Topic {
	return &Topic{subscribers: make(map[*Subscriber]struct{})}
}

func (t *Topic) Join(s *Subscriber) {
	t.mu.Lock()
	t.subscribers[s] = struct{}{}
	t.mu.Unlock()
}

// Leave removes s and reports whether the topic is now empty.
func (t *Topic) Leave(s *Subscriber) bool {
	t.mu.Lock()
	delete(t.subscribers, s)
	empty := len(t.subscribers) == 0
	t.mu.Unlock()
	return empty
}

// Close shuts down every subscriber and empties the topic.
func (t *Topic) Close() {
	t.mu.Lock()
	subscribers := t.subscribers
	t.subscribers = make(map[*Subscriber]struct{})
	t.mu.Unlock()
	for s := range subscribers {
		s.Shutdown()
	}
}

func (t *Topic) Publish(event dto.Event) {
	t.mu.Lock()
	subscribers := make([]*Subscriber, 0, len(t.subscribers))
	for s := range t.subscribers {
		subscribers = append(subscribers, s)
	}
	t.mu.Unlock()
	for _, s := range subscribers {
		s.Offer(event)
	}
}
