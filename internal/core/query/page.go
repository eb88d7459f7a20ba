package query

import (
	"context"
	"strconv"
)

type PageRequest struct {
	Page     int
	PageSize int
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// ParsePageRequest reads page and page_size. Missing, non-integer or
// non-positive values fall back to defaults; page_size is capped at the
// spec maximum.
func ParsePageRequest(spec Spec, params Params) PageRequest {
	req := PageRequest{Page: 1, PageSize: spec.defaultPageSize()}

	if n, err := strconv.Atoi(params["page"]); err == nil && n > 0 {
		req.Page = n
	}
	if n, err := strconv.Atoi(params["page_size"]); err == nil && n > 0 {
		req.PageSize = n
	}
	if limit := spec.maxPageSize(); req.PageSize > limit {
		req.PageSize = limit
	}
	return req
}

// Page is one window of a result set together with its navigation metadata.
type Page[T any] struct {
	Items        []T  `json:"items"`
	Page         int  `json:"page"`
	PageSize     int  `json:"page_size"`
	PreviousPage *int `json:"previous_page"`
	NextPage     *int `json:"next_page"`
	HasPrevious  bool `json:"has_previous"`
	HasNext      bool `json:"has_next"`
	Total        int  `json:"total"`
	Pages        int  `json:"pages"`
}

func NewPage[T any](items []T, req PageRequest, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	p := &Page[T]{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
	}
	if req.PageSize > 0 {
		p.Pages = (total + req.PageSize - 1) / req.PageSize
	}
	p.HasPrevious = req.Page > 1
	p.HasNext = req.Offset()+len(items) < total

	if p.HasPrevious {
		prev := req.Page - 1
		p.PreviousPage = &prev
	}
	if p.HasNext {
		next := req.Page + 1
		p.NextPage = &next
	}
	return p
}

// FetchFunc returns at most limit items starting at offset.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Paginate fetches the requested window of a result set whose size is
// total. Windows starting past the end are returned empty without fetching.
func Paginate[T any](ctx context.Context, total int, fetch FetchFunc[T], req PageRequest) (*Page[T], error) {
	if req.Offset() >= total {
		return NewPage[T](nil, req, total), nil
	}

	items, err := fetch(ctx, req.Offset(), req.PageSize)
	if err != nil {
		return nil, err
	}
	if len(items) > req.PageSize {
		items = items[:req.PageSize]
	}
	return NewPage(items, req, total), nil
}
