// internal/weighted/weighted.go

// Package weighted implements the one weighted random selection used by fortune, hazard
// and encounter tables and by the shop's price-weighted item pick.
package weighted

// Source is the slice of *rand.Rand the picker needs.
type Source interface {
	Intn(n int) int
}

// Entry pairs a payload with an integer weight. Entries with weight <= 0 are never chosen.
type Entry[T any] struct {
	Weight int
	Value  T
}

// Total returns the sum of all positive weights.
func Total[T any](entries []Entry[T]) int {
	total := 0
	for _, e := range entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	return total
}

// Pick draws a uniform value in [0, total) and walks the entries in order, subtracting each
// weight; the first entry whose cumulative weight exceeds the draw wins.
// ok is false when no entry has a positive weight.
func Pick[T any](src Source, entries []Entry[T]) (value T, ok bool) {
	idx := PickIndex(src, entries)
	if idx < 0 {
		return value, false
	}
	return entries[idx].Value, true
}

// PickIndex is Pick returning the chosen position, or -1.
func PickIndex[T any](src Source, entries []Entry[T]) int {
	total := Total(entries)
	if total <= 0 {
		return -1
	}
	remainder := src.Intn(total)
	for i, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		remainder -= e.Weight
		if remainder < 0 {
			return i
		}
	}
	// unreachable while Intn honours its contract
	return -1
}

// PickDistinct draws up to n distinct entries without replacement, preserving draw order.
func PickDistinct[T any](src Source, entries []Entry[T], n int) []T {
	pool := make([]Entry[T], len(entries))
	copy(pool, entries)

	out := make([]T, 0, n)
	for len(out) < n {
		idx := PickIndex(src, pool)
		if idx < 0 {
			break
		}
		out = append(out, pool[idx].Value)
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}
