// Package diff reconciles an existing child collection with its desired
// state, producing the minimal set of removals and additions. Backends use
// it to turn a full-entity save into targeted child-row deletes and inserts
// instead of rewriting whole collections, which matters for posts carrying
// long revision histories.
package diff

// Separate partitions old and current by the key function. Elements whose key
// appears only in old are removed; elements whose key appears only in current
// are added. Elements present in both are left untouched, regardless of any
// difference in non-key fields. Order is irrelevant on both sides.
func Separate[T any, K comparable](old, current []T, key func(T) K) (removed, added []T) {
	oldKeys := make(map[K]struct{}, len(old))
	for _, item := range old {
		oldKeys[key(item)] = struct{}{}
	}

	currentKeys := make(map[K]struct{}, len(current))
	for _, item := range current {
		currentKeys[key(item)] = struct{}{}
	}

	for _, item := range old {
		if _, ok := currentKeys[key(item)]; !ok {
			removed = append(removed, item)
		}
	}
	for _, item := range current {
		if _, ok := oldKeys[key(item)]; !ok {
			added = append(added, item)
		}
	}

	return removed, added
}
