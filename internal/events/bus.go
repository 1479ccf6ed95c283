// Package events carries ledger change notifications to in-process
// subscribers such as the report cache and the AMQP forwarder.
package events

import (
	"sync"
	"time"
)

// Name identifies a kind of change.
type Name string

const (
	OperationAdded    Name = "operation-added"
	OperationUpdated  Name = "operation-updated"
	OperationDeleted  Name = "operation-deleted"
	OperationsCleared Name = "operations-cleared"
	CategoryAdded     Name = "category-added"
	CategoryRemoved   Name = "category-removed"
	CategoryRenamed   Name = "category-renamed"
	CategoryMerged    Name = "category-merged"
	CategoriesChanged Name = "categories-changed"
	SettingsChanged   Name = "settings-changed"
	DataImported      Name = "data-imported"
)

// Names lists every event name in a stable order.
func Names() []Name {
	return []Name{
		OperationAdded, OperationUpdated, OperationDeleted, OperationsCleared,
		CategoryAdded, CategoryRemoved, CategoryRenamed, CategoryMerged, CategoriesChanged,
		SettingsChanged, DataImported,
	}
}

// Event is one committed change. Payload holds the affected entity: an
// operation, an id, a category change or the new settings.
type Event struct {
	Name    Name      `json:"event"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"timestamp"`
}

// CategoryChange describes an added, removed, renamed or merged category.
// For a merge, Name is the dropped source and NewName the target.
type CategoryChange struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	NewName string `json:"newName,omitempty"`
	// Affected counts the operations removed or rewritten by the change.
	Affected int `json:"affected,omitempty"`
}

// ImportSummary is the payload of DataImported.
type ImportSummary struct {
	Mode       string `json:"mode"`
	Operations int    `json:"operations"`
	Added      int    `json:"added"`
}

// Handler receives events synchronously on the publisher's goroutine.
type Handler func(Event)

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
	ids  []int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]Handler{}}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.ids = append(b.ids, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.ids {
				if v == id {
					b.ids = append(b.ids[:i], b.ids[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber. A nil Bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.ids))
	for _, id := range b.ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}
