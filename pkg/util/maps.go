// Package util holds small generic helpers shared across notesync packages.
package util

import (
	"cmp"
	"maps"
	"slices"
)

// SortedKeys returns the keys of a map in sorted order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

// SortedSet returns the distinct elements of s in sorted order.
func SortedSet[E cmp.Ordered](s []E) []E {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}
