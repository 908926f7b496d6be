package fakeserver

// page returns the items starting at offset, at most limit of them. A limit
// of 0 uses the default.
func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
