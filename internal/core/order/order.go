package order

import "cmp"

// InsertionThreshold is the run length below which insertion sort is used.
// Longer slices are sorted in blocks of this size and then merged.
const InsertionThreshold = 16

// Sorter is a stable sorter that keeps its merge buffer between calls,
// so sorting the same collection every tick does not allocate.
// Not safe for concurrent use.
type Sorter[T any] struct {
	scratch []T
}

// Stable sorts s in place by cmp. Elements that compare equal keep their
// relative order.
func (st *Sorter[T]) Stable(s []T, cmp func(a, b T) int) {
	n := len(s)
	if n < 2 {
		return
	}
	if n <= InsertionThreshold {
		insertion(s, cmp)
		return
	}

	for lo := 0; lo < n; lo += InsertionThreshold {
		insertion(s[lo:min(lo+InsertionThreshold, n)], cmp)
	}

	if cap(st.scratch) < n {
		st.scratch = make([]T, n)
	}
	buf := st.scratch[:n]

	src, dst := s, buf
	inScratch := false
	for width := InsertionThreshold; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			merge(dst[lo:hi], src[lo:mid], src[mid:hi], cmp)
		}
		src, dst = dst, src
		inScratch = !inScratch
	}
	if inScratch {
		copy(s, buf)
	}
	// Drop references so the scratch buffer does not keep members alive.
	clear(buf)
}

func insertion[T any](s []T, cmp func(a, b T) int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && cmp(s[j], s[j-1]) < 0; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// merge writes the merge of a and b into dst. Ties take from a first.
func merge[T any](dst, a, b []T, cmp func(a, b T) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if cmp(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

// Ascending orders smaller keys first. Used for update order keys.
func Ascending(a, b int) int { return cmp.Compare(a, b) }

// Descending orders larger keys first. Used for layer keys, so a higher
// layer is submitted earlier and ends up further back.
func Descending(a, b int) int { return cmp.Compare(b, a) }

// By lifts an int comparator to T through a key accessor.
func By[T any](key func(T) int, keyCmp func(a, b int) int) func(a, b T) int {
	return func(a, b T) int {
		return keyCmp(key(a), key(b))
	}
}
