package util

import "strconv"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Normalize clamps page to >= 1 and size to (0, MaxPageSize].
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func Calculate(page, size int) (offset, limit int) {
	page, size = Normalize(page, size)
	return (page - 1) * size, size
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func NewPagination(page, size int, total int64) Pagination {
	page, size = Normalize(page, size)
	pages := int((total + int64(size) - 1) / int64(size))
	return Pagination{
		Page:       page,
		Limit:      size,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
