package models

type identifiable interface {
	Identity() string
}

// UpsertByID replaces the element whose Identity matches item's, or appends
// item when no element matches. Order of existing elements is preserved.
// Cows in a herd and events within a cow share this exact merge-or-append
// behavior.
func UpsertByID[T identifiable](items []T, item T) []T {
	for i := range items {
		if items[i].Identity() == item.Identity() {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// RemoveByID drops the element whose Identity matches id. Removing an absent
// id is a no-op.
func RemoveByID[T identifiable](items []T, id string) []T {
	out := items[:0]
	for _, it := range items {
		if it.Identity() != id {
			out = append(out, it)
		}
	}
	return out
}
