package domain

// Raffle listing page sizes. The storefront grid shows four cards per row.
const (
	DefaultRafflePageSize = 12
	MaxRafflePageSize     = 48
)

// PaginationParams selects one page of the active-raffle listing. Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// NewPaginationParams clamps page and size into range. Values below 1 take the defaults.
func NewPaginationParams(page, size int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultRafflePageSize
	case size > MaxRafflePageSize:
		size = MaxRafflePageSize
	}
	return PaginationParams{Page: page, PageSize: size}
}

// Offset is the number of raffles before this page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) bounds of this page in a listing of total raffles.
// A zero PageSize means the whole remainder.
func (p PaginationParams) Window(total int) (start, end int) {
	start = min(p.Offset(), total)
	end = total
	if p.PageSize > 0 {
		end = min(start+p.PageSize, total)
	}
	return start, end
}

// TotalPages is how many pages of PageSize cover total raffles.
func (p PaginationParams) TotalPages(total int) int {
	if p.PageSize <= 0 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}
