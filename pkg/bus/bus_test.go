package bus

import "testing"

func TestPublishFanOutOrder(t *testing.T) {
	b := New()
	var order []int

	b.Subscribe(TopicSystemTick, func(Event) { order = append(order, 1) })
	b.Subscribe(TopicSystemTick, func(Event) { order = append(order, 2) })
	b.Subscribe(TopicSystemTick, func(Event) { order = append(order, 3) })

	b.Publish(Tick{TickNumber: 1})

	if len(order) != 3 {
		t.Fatalf("expected 3 dispatches, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("expected registration order, got %v", order)
			break
		}
	}
}

func TestPublishDifferentTopicsDontCrossFire(t *testing.T) {
	b := New()
	tickFired := false
	orderFired := false

	b.Subscribe(TopicSystemTick, func(Event) { tickFired = true })
	b.Subscribe(TopicOrderSubmitted, func(Event) { orderFired = true })

	b.Publish(Tick{})

	if !tickFired {
		t.Errorf("expected tick subscriber to fire")
	}
	if orderFired {
		t.Errorf("did not expect order subscriber to fire")
	}
}

func TestPublishSkipsPanickingSubscriber(t *testing.T) {
	b := New()
	secondRan := false

	b.Subscribe(TopicSystemTick, func(Event) { panic("boom") })
	b.Subscribe(TopicSystemTick, func(Event) { secondRan = true })

	b.Publish(Tick{})

	if !secondRan {
		t.Errorf("expected fan-out to continue past a panicking subscriber")
	}
}

func TestPublishBoundedRecursion(t *testing.T) {
	b := New()
	calls := 0

	b.Subscribe(TopicOrderSubmitted, func(e Event) {
		calls++
		b.Publish(e) // re-entrant publish from within a subscriber
	})

	b.Publish(OrderSubmitted{})

	if calls > maxPublishDepth+1 {
		t.Errorf("expected bounded recursion, got %d calls", calls)
	}
}

func TestDeinitDropsSubscriptions(t *testing.T) {
	b := New()
	fired := false
	b.Subscribe(TopicSystemTick, func(Event) { fired = true })

	b.Deinit()
	b.Publish(Tick{})

	if fired {
		t.Errorf("expected no subscribers to fire after Deinit")
	}
}
