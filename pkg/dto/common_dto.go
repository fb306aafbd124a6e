package dto

// DefaultPageSize is the number of list items shown per page.
const DefaultPageSize = 10

type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type Paginated[T any] struct {
	Data []T           `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// Paginate slices items for the requested page. Page numbers start at 1;
// out-of-range pages yield an empty slice with accurate metadata.
func Paginate[T any](items []T, page, limit int) Paginated[T] {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Paginated[T]{
		Data: data,
		Meta: PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  int64(total),
			Limit:       limit,
		},
	}
}
