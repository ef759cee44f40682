package store

// Apply returns items with the entry whose key matches next's key replaced
// by next.
//
// Apply is pure: items is never modified. Entries with other keys are
// copied unchanged, and no entry is ever inserted or removed. When no entry
// matches, or the matching entry already equals next, items itself is
// returned with changed set to false.
func Apply[T any](items []T, next T, key func(T) string, equal func(a, b T) bool) (result []T, changed bool) {
	id := key(next)

	idx := -1
	for i := range items {
		if key(items[i]) == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return items, false
	}
	if equal != nil && equal(items[idx], next) {
		return items, false
	}

	result = make([]T, len(items))
	copy(result, items)
	result[idx] = next
	return result, true
}
