package deferred

import (
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/order"
)

// Member is anything a List can hold: entities in a scene, components on an
// entity, graphics in a container.
type Member interface {
	comparable
	// SortKey is the order key (entities, components) or layer key (graphics).
	SortKey() int
	// OnAdmitted runs when the member enters the active collection.
	OnAdmitted(owner ecs.Handle)
	// OnEvicted runs when the member leaves the active collection.
	OnEvicted()
}

// List holds a canonical active collection plus queues of requested
// additions and removals. Requests never touch the active slice; they are
// applied in Reconcile, which the owner calls at a sync point once per step.
// Ranging over Active while members call RequestAdd/RequestRemove on the same
// list is therefore safe.
//
// A List is owned by one container and driven from one goroutine.
type List[M Member] struct {
	owner ecs.Handle

	active        []M
	pendingAdd    []M
	pendingRemove []M
	members       map[M]struct{}
	adding        map[M]int
	dirty         bool

	// spare buffers swapped with the pending queues during Reconcile
	addBuf    []M
	removeBuf []M

	cmp    func(a, b M) int
	sorter order.Sorter[M]
}

// New creates a list sorted by SortKey using keyCmp (order.Ascending or
// order.Descending).
func New[M Member](keyCmp func(a, b int) int) *List[M] {
	return &List[M]{
		members: make(map[M]struct{}),
		adding:  make(map[M]int),
		cmp:     order.By(func(m M) int { return m.SortKey() }, keyCmp),
	}
}

// SetOwner sets the handle passed to OnAdmitted.
func (l *List[M]) SetOwner(owner ecs.Handle) { l.owner = owner }

func (l *List[M]) Owner() ecs.Handle { return l.owner }

// RequestAdd queues m for admission. Adding an active member is a no-op.
func (l *List[M]) RequestAdd(m M) {
	if _, ok := l.members[m]; ok {
		return
	}
	l.pendingAdd = append(l.pendingAdd, m)
	l.adding[m]++
}

// RequestRemove queues m for eviction. Removing a member that is neither
// active nor pending admission is a no-op.
func (l *List[M]) RequestRemove(m M) {
	if _, ok := l.members[m]; !ok && l.adding[m] == 0 {
		return
	}
	l.pendingRemove = append(l.pendingRemove, m)
}

// MarkOrderDirty forces a sort at the next Reconcile. Call it after changing
// a member's key.
func (l *List[M]) MarkOrderDirty() { l.dirty = true }

// Reconcile applies pending additions, then pending removals, then sorts
// the active collection if its order is dirty. A member added and removed in
// the same batch is admitted and evicted here, in that order, and is not
// active afterwards.
func (l *List[M]) Reconcile() {
	if l.owner.IsZero() && (len(l.pendingAdd) > 0 || len(l.pendingRemove) > 0 || l.dirty) {
		panic("deferred: reconcile on a list without an owner")
	}

	// Requests made from inside callbacks land in fresh queues and wait for
	// the next Reconcile, except removals requested during admission, which
	// are still part of this batch.
	if len(l.pendingAdd) > 0 {
		adds := l.pendingAdd
		l.pendingAdd = l.addBuf[:0]
		for _, m := range adds {
			if n := l.adding[m]; n <= 1 {
				delete(l.adding, m)
			} else {
				l.adding[m] = n - 1
			}
			if _, ok := l.members[m]; ok {
				continue
			}
			l.members[m] = struct{}{}
			l.active = append(l.active, m)
			m.OnAdmitted(l.owner)
			l.dirty = true
		}
		clear(adds)
		l.addBuf = adds[:0]
	}

	if len(l.pendingRemove) > 0 {
		removes := l.pendingRemove
		l.pendingRemove = l.removeBuf[:0]
		for _, m := range removes {
			if _, ok := l.members[m]; !ok {
				continue
			}
			delete(l.members, m)
			l.erase(m)
			m.OnEvicted()
		}
		clear(removes)
		l.removeBuf = removes[:0]
	}

	if l.dirty {
		l.sorter.Stable(l.active, l.cmp)
		l.dirty = false
	}
}

// erase removes m from active keeping the order of the rest.
func (l *List[M]) erase(m M) {
	for i, a := range l.active {
		if a == m {
			copy(l.active[i:], l.active[i+1:])
			var zero M
			l.active[len(l.active)-1] = zero
			l.active = l.active[:len(l.active)-1]
			return
		}
	}
}

// Clear evicts every active member and discards pending requests. Pending
// additions are dropped without callbacks and returned, first request
// first, so the owner can release them. Used when the owner goes away.
func (l *List[M]) Clear() []M {
	var dropped []M
	for _, m := range l.pendingAdd {
		if l.adding[m] > 0 {
			dropped = append(dropped, m)
			delete(l.adding, m)
		}
	}
	clear(l.pendingAdd)
	l.pendingAdd = l.pendingAdd[:0]
	clear(l.pendingRemove)
	l.pendingRemove = l.pendingRemove[:0]
	clear(l.adding)

	evicted := l.active
	l.active = nil
	clear(l.members)
	l.dirty = false
	for _, m := range evicted {
		m.OnEvicted()
	}
	return dropped
}

// Active returns the canonical collection. Callers must not modify it.
func (l *List[M]) Active() []M { return l.active }

// Each calls fn for every active member in order. fn may request
// additions and removals; they take effect at the next Reconcile.
func (l *List[M]) Each(fn func(M)) {
	for _, m := range l.active {
		fn(m)
	}
}

func (l *List[M]) Len() int { return len(l.active) }

// Contains reports whether m is active.
func (l *List[M]) Contains(m M) bool {
	_, ok := l.members[m]
	return ok
}

// Pending reports whether m is queued for admission.
func (l *List[M]) Pending(m M) bool { return l.adding[m] > 0 }

// Find returns the first active member matching fn.
func (l *List[M]) Find(fn func(M) bool) (M, bool) {
	for _, m := range l.active {
		if fn(m) {
			return m, true
		}
	}
	var zero M
	return zero, false
}
