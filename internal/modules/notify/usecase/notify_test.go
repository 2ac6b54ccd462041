package usecase_test

import (
	"testing"
	"time"

	"studywarden/internal/modules/notify/dto"
	"studywarden/internal/modules/notify/service"
	"studywarden/internal/modules/notify/usecase"
	"studywarden/internal/platform/clock"
)

func TestPublishDropsOldestForSlowSubscriber(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	notifier := usecase.NewInteractor(service.NewHub(clk, 2, nil))
	sub := notifier.Subscribe("p1")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			notifier.Publish(dto.Event{Kind: dto.KindRemainingTimeUpdated, ProfileID: "p1", Payload: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a subscriber that is not reading")
	}

	first := <-sub.Events()
	second := <-sub.Events()
	if first.Payload != 3 || second.Payload != 4 {
		t.Fatalf("expected newest events 3 and 4, got %v and %v", first.Payload, second.Payload)
	}
	if sub.Dropped() != 3 {
		t.Fatalf("expected 3 dropped events, got %d", sub.Dropped())
	}
	if first.OccurredAt.IsZero() {
		t.Fatalf("publish must stamp events")
	}
}

func TestTopicsAreIsolatedAndBroadcastReachesAll(t *testing.T) {
	t.Parallel()
	notifier := usecase.NewInteractor(service.NewHub(clock.SystemClock{}, 8, nil))
	a1 := notifier.Subscribe("a")
	a2 := notifier.Subscribe("a")
	b := notifier.Subscribe("b")
	defer a1.Close()
	defer a2.Close()
	defer b.Close()

	notifier.Publish(dto.Event{Kind: dto.KindSessionUpdated, ProfileID: "a"})
	notifier.Broadcast(dto.Event{Kind: dto.KindConfigUpdated})

	for name, sub := range map[string]interface{ Events() <-chan dto.Event }{"a1": a1, "a2": a2} {
		if got := (<-sub.Events()).Kind; got != dto.KindSessionUpdated {
			t.Fatalf("%s: expected session_updated, got %s", name, got)
		}
		if got := (<-sub.Events()).Kind; got != dto.KindConfigUpdated {
			t.Fatalf("%s: expected config_updated, got %s", name, got)
		}
	}
	if got := (<-b.Events()).Kind; got != dto.KindConfigUpdated {
		t.Fatalf("profile b must only see the broadcast, got %s", got)
	}
}

func TestCloseEndsStreamAndIsIdempotent(t *testing.T) {
	t.Parallel()
	notifier := usecase.NewInteractor(service.NewHub(clock.SystemClock{}, 4, nil))
	sub := notifier.Subscribe("p1")
	sub.Close()
	sub.Close()
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed channel")
	}
	notifier.Publish(dto.Event{Kind: dto.KindSessionUpdated, ProfileID: "p1"})
}

func TestNotifierCloseEndsEverySubscription(t *testing.T) {
	t.Parallel()
	notifier := usecase.NewInteractor(service.NewHub(clock.SystemClock{}, 4, nil))
	a := notifier.Subscribe("a")
	b := notifier.Subscribe("b")
	defer a.Close()
	defer b.Close()

	notifier.Close()
	notifier.Close()
	for name, sub := range map[string]interface{ Events() <-chan dto.Event }{"a": a, "b": b} {
		select {
		case _, ok := <-sub.Events():
			if ok {
				t.Fatalf("%s: expected closed channel", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: subscription still open after notifier close", name)
		}
	}

	late := notifier.Subscribe("a")
	defer late.Close()
	if _, ok := <-late.Events(); ok {
		t.Fatalf("subscription after close must start closed")
	}
	notifier.Broadcast(dto.Event{Kind: dto.KindConfigUpdated})
}
