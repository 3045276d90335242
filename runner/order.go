package runner

import "github.com/samber/lo"

// Order puts the ids named in override first, in override order, followed by the
// remaining ids in their original order. Override entries that are not in ids are ignored.
func Order(ids []string, override []string) []string {
	known := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })

	ordered := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range override {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}

	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			ordered = append(ordered, id)
		}
	}

	return ordered
}

// orderBy sorts items the way Order sorts their ids.
func orderBy[T any](items []T, id func(T) string, override []string) []T {
	byID := lo.KeyBy(items, id)
	return lo.Map(Order(lo.Map(items, func(t T, _ int) string { return id(t) }), override), func(id string, _ int) T {
		return byID[id]
	})
}
