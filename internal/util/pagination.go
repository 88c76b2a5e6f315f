package util

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Paginate returns the requested page of items; a page past the end is empty.
func Paginate[T any](items []T, page, size int) []T {
	from, limit := Calculate(page, size)
	if from >= len(items) {
		return []T{}
	}
	return items[from:min(from+limit, len(items))]
}
