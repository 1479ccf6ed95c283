package events

import "testing"

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(func(e Event) { got = append(got, "a:"+string(e.Name)) })
	b.Subscribe(func(e Event) { got = append(got, "b:"+string(e.Name)) })

	b.Publish(Event{Name: OperationAdded})

	if len(got) != 2 || got[0] != "a:operation-added" || got[1] != "b:operation-added" {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(func(Event) { calls++ })
	b.Publish(Event{Name: SettingsChanged})
	unsub()
	unsub()
	b.Publish(Event{Name: SettingsChanged})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if b.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Len())
	}
}

func TestBusStampsTime(t *testing.T) {
	b := NewBus()
	var e Event
	b.Subscribe(func(got Event) { e = got })
	b.Publish(Event{Name: DataImported})
	if e.At.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestNilBusPublish(t *testing.T) {
	var b *Bus
	b.Publish(Event{Name: OperationDeleted})
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	b := NewBus()
	var unsub func()
	calls := 0
	unsub = b.Subscribe(func(Event) { calls++; unsub() })
	b.Publish(Event{Name: OperationAdded})
	b.Publish(Event{Name: OperationAdded})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
