package pipeline

import (
	"hash/fnv"
	"sync"
)

// ReplayGuard remembers the most recently processed events so a redelivered
// catalog message does not publish its rows twice. An event is a replay when
// both its ID and its payload fingerprint match a remembered entry; a changed
// payload under the same ID is a revision and is processed again.
type ReplayGuard struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key         string
	fingerprint uint64
	prev        *entry
	next        *entry
}

// NewReplayGuard creates a guard holding at most maxEntries event IDs.
func NewReplayGuard(maxEntries int) *ReplayGuard {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ReplayGuard{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// Fingerprint hashes a message payload for Seen.
func Fingerprint(payload []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(payload)
	return h.Sum64()
}

// Seen reports whether eventID was already processed with the same
// fingerprint. Otherwise it records the pair and returns false.
func (g *ReplayGuard) Seen(eventID string, fingerprint uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[eventID]; ok {
		g.moveToFront(e)
		if e.fingerprint == fingerprint {
			return true
		}
		e.fingerprint = fingerprint
		return false
	}

	e := &entry{key: eventID, fingerprint: fingerprint}
	g.entries[eventID] = e
	g.addToFront(e)

	if len(g.entries) > g.maxEntries {
		g.evictTail()
	}
	return false
}

// Forget drops eventID if it is remembered with fingerprint. A pair recorded
// for rows that were never published is forgotten so a redelivery is
// processed again.
func (g *ReplayGuard) Forget(eventID string, fingerprint uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[eventID]
	if !ok || e.fingerprint != fingerprint {
		return
	}
	delete(g.entries, eventID)
	g.remove(e)
}

// Len returns the number of remembered events.
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *ReplayGuard) moveToFront(e *entry) {
	if e == g.head {
		return
	}
	g.remove(e)
	g.addToFront(e)
}

func (g *ReplayGuard) addToFront(e *entry) {
	e.next = g.head
	e.prev = nil
	if g.head != nil {
		g.head.prev = e
	}
	g.head = e
	if g.tail == nil {
		g.tail = e
	}
}

func (g *ReplayGuard) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		g.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		g.tail = e.prev
	}
}

func (g *ReplayGuard) evictTail() {
	if g.tail == nil {
		return
	}
	delete(g.entries, g.tail.key)
	g.remove(g.tail)
}
