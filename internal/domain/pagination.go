package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPage normalizes a limit/offset pair
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
