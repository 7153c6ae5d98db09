package fill

import (
	"fmt"
	"sync"
)

// Priority ranks how much a write should be trusted
type Priority int

const (
	PriorityFallback Priority = iota
	PriorityBasic
	PriorityAIGenerated
	PriorityUserOverride
)

func (p Priority) String() string {
	switch p {
	case PriorityFallback:
		return "fallback"
	case PriorityBasic:
		return "basic"
	case PriorityAIGenerated:
		return "ai_generated"
	case PriorityUserOverride:
		return "user_override"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Role of a field on the proposal form
type Role string

const (
	RoleCoverLetter Role = "cover_letter"
	RoleQuestion    Role = "question"
)

// Slot identifies what a priority is tracked for. The cover letter has a
// single slot; every question field has its own.
type Slot struct {
	Role     Role
	FieldKey string
}

// SlotFor returns the slot a write to fieldKey in role competes for
func SlotFor(role Role, fieldKey string) Slot {
	if role == RoleCoverLetter {
		return Slot{Role: role}
	}
	return Slot{Role: role, FieldKey: fieldKey}
}

// Claim is proof of a won compare-and-set. It stays valid until a later
// write wins the same slot.
type Claim struct {
	Slot     Slot
	Priority Priority
	seq      uint64
}

type ledgerEntry struct {
	priority Priority
	seq      uint64
}

// Ledger holds the last applied priority per slot
type Ledger struct {
	mu      sync.Mutex
	seq     uint64
	entries map[Slot]ledgerEntry
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[Slot]ledgerEntry)}
}

// CompareAndSet claims slot for p unless a strictly higher priority holds it
func (l *Ledger) CompareAndSet(slot Slot, p Priority) (Claim, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.entries[slot]; ok && p < cur.priority {
		return Claim{}, false
	}

	l.seq++
	l.entries[slot] = ledgerEntry{priority: p, seq: l.seq}
	return Claim{Slot: slot, Priority: p, seq: l.seq}, true
}

// Owns reports whether claim is still the latest write to its slot
func (l *Ledger) Owns(c Claim) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.entries[c.Slot]
	return ok && cur.seq == c.seq
}

// Current returns the priority last applied to slot
func (l *Ledger) Current(slot Slot) (Priority, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.entries[slot]
	return cur.priority, ok
}

// Reset forgets every slot
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.entries = make(map[Slot]ledgerEntry)
	l.mu.Unlock()
}
