package asymlock

import "golang.org/x/exp/slices"

// Identified is implemented by anything that owns a Lock and carries a
// stable, totally-ordered identity. AcquireAll uses the identity to lock a
// whole set of collaborators in a deterministic order regardless of the
// order callers pass them in, which is what makes hand-over-hand locking
// over a subgraph (spec §4.2 transactional(), §9 "hand-over-hand on sets")
// deadlock-free: two goroutines racing to transactionalize overlapping
// subgraphs always acquire the shared members in the same order.
type Identified interface {
	LockID() uint64
	Locker() *Lock
}

// Set is a group of collaborators locked together as a unit by AcquireAll.
type Set struct {
	members []Identified
}

// AcquireAll sorts items by LockID ascending and acquires each one's
// exclusive lock in that order. The returned Set must be released with
// ReleaseAll once the caller is done, which releases in reverse order.
func AcquireAll(items []Identified) *Set {
	ordered := make([]Identified, len(items))
	copy(ordered, items)
	slices.SortFunc(ordered, func(a, b Identified) bool {
		return a.LockID() < b.LockID()
	})

	for _, it := range ordered {
		it.Locker().AcquireExclusive()
	}
	return &Set{members: ordered}
}

// ReleaseAll releases every member's exclusive lock in reverse acquisition
// order.
func (s *Set) ReleaseAll() {
	for i := len(s.members) - 1; i >= 0; i-- {
		s.members[i].Locker().ReleaseExclusive()
	}
}

// Len reports how many collaborators are held by this set.
func (s *Set) Len() int {
	return len(s.members)
}
