package types

// PaginationMeta - метаданные страницы в стиле Laravel-пагинатора.
type PaginationMeta struct {
	CurrentPage uint64 `json:"current_page"`
	LastPage    uint64 `json:"last_page"`
	PerPage     uint64 `json:"per_page"`
	Total       uint64 `json:"total"`
}

func NewPaginationMeta(total, page, perPage uint64) PaginationMeta {
	last := uint64(1)
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return PaginationMeta{CurrentPage: page, LastPage: last, PerPage: perPage, Total: total}
}

// ListResult - страница результатов вместе с применёнными фильтрами.
type ListResult[T any] struct {
	List       []T               `json:"list"`
	Pagination PaginationMeta    `json:"pagination"`
	Filters    map[string]string `json:"filters"`
}
