package service

import (
	"sync"

	"go.uber.org/zap"

	"studywarden/internal/modules/notify/domain"
	"studywarden/internal/modules/notify/dto"
	"studywarden/internal/platform/clock"
)

const DefaultBuffer = 64

// Hub fans events out to per-profile topics.
type Hub struct {
	clock  clock.Clock
	buffer int
	logger *zap.Logger

	mu     sync.Mutex
	topics map[string]*domain.Topic
	closed bool
}

func NewHub(clk clock.Clock, buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clock: clk, buffer: buffer, logger: logger, topics: make(map[string]*domain.Topic)}
}

func (h *Hub) Subscribe(profileID string) (*domain.Subscriber, func()) {
	sub := domain.NewSubscriber(h.buffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Shutdown()
		return sub, func() {}
	}
	topic, ok := h.topics[profileID]
	if !ok {
		topic = domain.NewTopic()
		h.topics[profileID] = topic
	}
	topic.Join(sub)
	h.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			h.mu.Lock()
			if topic.Leave(sub) && h.topics[profileID] == topic {
				delete(h.topics, profileID)
			}
			h.mu.Unlock()
			sub.Shutdown()
			if dropped := sub.Dropped(); dropped > 0 {
				h.logger.Debug("subscriber closed with dropped events", zap.String("profile_id", profileID), zap.Uint64("dropped", dropped))
			}
		})
	}
}

func (h *Hub) Publish(event dto.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.clock.Now()
	}
	h.mu.Lock()
	topic, ok := h.topics[event.ProfileID]
	h.mu.Unlock()
	if !ok {
		return
	}
	topic.Publish(event)
}

func (h *Hub) Broadcast(event dto.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.clock.Now()
	}
	h.mu.Lock()
	topics := make([]*domain.Topic, 0, len(h.topics))
	for _, topic := range h.topics {
		topics = append(topics, topic)
	}
	h.mu.Unlock()
	for _, topic := range topics {
		topic.Publish(event)
	}
}

// Close ends every subscription so their readers see a closed channel.
// Later subscriptions start closed and publishing becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]*domain.Topic)
	h.mu.Unlock()
	for _, topic := range topics {
		topic.Close()
	}
	h.logger.Debug("notifier closed", zap.Int("topics", len(topics)))
}
