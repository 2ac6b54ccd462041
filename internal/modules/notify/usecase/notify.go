package usecase

import (
	"studywarden/internal/modules/notify/domain"
	"studywarden/internal/modules/notify/dto"
	notifyin "studywarden/internal/modules/notify/port/in"
	"studywarden/internal/modules/notify/service"
)

type Interactor struct {
	hub *service.Hub
}

func NewInteractor(hub *service.Hub) notifyin.Usecase {
	return &Interactor{hub: hub}
}

func (i *Interactor) Publish(event dto.Event) {
	i.hub.Publish(event)
}

func (i *Interactor) Broadcast(event dto.Event) {
	i.hub.Broadcast(event)
}

func (i *Interactor) Close() {
	i.hub.Close()
}

func (i *Interactor) Subscribe(profileID string) notifyin.Subscription {
	sub, closeFn := i.hub.Subscribe(profileID)
	return &subscription{sub: sub, close: closeFn}
}

type subscription struct {
	sub   *domain.Subscriber
	close func()
}

func (s *subscription) Events() <-chan dto.Event { return s.sub.Events() }
func (s *subscription) Dropped() uint64          { return s.sub.Dropped() }
func (s *subscription) Close()                   { s.close() }
