package in

import "studywarden/internal/modules/notify/dto"

// Subscription is one subscriber's view of a profile topic.
type Subscription interface {
	Events() <-chan dto.Event
	Dropped() uint64
	Close()
}

type Usecase interface {
	// Publish delivers to every subscriber of event.ProfileID without blocking.
	Publish(event dto.Event)
	// Broadcast delivers to every subscriber of every topic.
	Broadcast(event dto.Event)
	Subscribe(profileID string) Subscription
	// Close ends every open subscription.
	Close()
}
