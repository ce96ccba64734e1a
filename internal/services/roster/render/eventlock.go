package render

import (
	"context"
	"sync"
)

// eventLocks serializes work per event id. Entries are dropped once no
// caller holds or waits on them.
type eventLocks struct {
	mu    sync.Mutex
	slots map[string]*eventSlot
}

type eventSlot struct {
	sem  chan struct{}
	refs int
}

func (l *eventLocks) acquire(ctx context.Context, eventID string) (func(), error) {
	l.mu.Lock()
	if l.slots == nil {
		l.slots = make(map[string]*eventSlot)
	}
	slot, ok := l.slots[eventID]
	if !ok {
		slot = &eventSlot{sem: make(chan struct{}, 1)}
		l.slots[eventID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
		return func() {
			<-slot.sem
			l.drop(eventID, slot)
		}, nil
	case <-ctx.Done():
		l.drop(eventID, slot)
		return nil, ctx.Err()
	}
}

func (l *eventLocks) drop(eventID string, slot *eventSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, eventID)
	}
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
