package query

import (
	"context"
	"errors"
	"testing"
)

func TestParsePageRequest(t *testing.T) {
	spec := testSpec()
	spec.MaxPageSize = 50

	tests := []struct {
		name   string
		params Params
		want   PageRequest
	}{
		{"defaults", Params{}, PageRequest{1, 25}},
		{"explicit", Params{"page": "3", "page_size": "10"}, PageRequest{3, 10}},
		{"non-integer", Params{"page": "two", "page_size": "ten"}, PageRequest{1, 25}},
		{"non-positive", Params{"page": "0", "page_size": "-5"}, PageRequest{1, 25}},
		{"clamped", Params{"page_size": "500"}, PageRequest{1, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePageRequest(spec, tt.params); got != tt.want {
				t.Errorf("ParsePageRequest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPageMetadata(t *testing.T) {
	tests := []struct {
		name                 string
		req                  PageRequest
		items                int
		total                int
		pages                int
		hasPrevious, hasNext bool
	}{
		{"empty set", PageRequest{1, 10}, 0, 0, 0, false, false},
		{"single full page", PageRequest{1, 10}, 10, 10, 1, false, false},
		{"first of three", PageRequest{1, 10}, 10, 25, 3, false, true},
		{"middle", PageRequest{2, 10}, 10, 25, 3, true, true},
		{"last partial", PageRequest{3, 10}, 5, 25, 3, true, false},
		{"past the end", PageRequest{9, 10}, 0, 25, 3, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(make([]int, tt.items), tt.req, tt.total)

			if p.Pages != tt.pages {
				t.Errorf("Pages = %d, want %d", p.Pages, tt.pages)
			}
			if p.HasPrevious != tt.hasPrevious {
				t.Errorf("HasPrevious = %v, want %v", p.HasPrevious, tt.hasPrevious)
			}
			if p.HasNext != tt.hasNext {
				t.Errorf("HasNext = %v, want %v", p.HasNext, tt.hasNext)
			}
			if tt.hasPrevious && (p.PreviousPage == nil || *p.PreviousPage != tt.req.Page-1) {
				t.Errorf("PreviousPage = %v", p.PreviousPage)
			}
			if !tt.hasPrevious && p.PreviousPage != nil {
				t.Errorf("PreviousPage should be nil, got %d", *p.PreviousPage)
			}
			if tt.hasNext && (p.NextPage == nil || *p.NextPage != tt.req.Page+1) {
				t.Errorf("NextPage = %v", p.NextPage)
			}
			if !tt.hasNext && p.NextPage != nil {
				t.Errorf("NextPage should be nil, got %d", *p.NextPage)
			}
		})
	}
}

func TestPaginateWindow(t *testing.T) {
	data := make([]int, 23)
	for i := range data {
		data[i] = i
	}

	var gotOffset, gotLimit int
	fetch := func(ctx context.Context, offset, limit int) ([]int, error) {
		gotOffset, gotLimit = offset, limit
		end := offset + limit
		if end > len(data) {
			end = len(data)
		}
		return data[offset:end], nil
	}

	p, err := Paginate(context.Background(), len(data), fetch, PageRequest{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if gotOffset != 20 || gotLimit != 10 {
		t.Errorf("fetch(offset=%d, limit=%d), want (20, 10)", gotOffset, gotLimit)
	}
	if len(p.Items) != 3 || p.Items[0] != 20 {
		t.Errorf("items = %v", p.Items)
	}
	if p.HasNext {
		t.Error("last page should not have next")
	}
}

func TestPaginatePastEndSkipsFetch(t *testing.T) {
	fetch := func(ctx context.Context, offset, limit int) ([]int, error) {
		t.Error("fetch should not be called past the end")
		return nil, nil
	}

	p, err := Paginate(context.Background(), 5, fetch, PageRequest{Page: 4, PageSize: 5})
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("items = %#v, want empty non-nil", p.Items)
	}
	if p.HasNext {
		t.Error("HasNext should be false past the end")
	}
}

func TestPaginatePropagatesFetchError(t *testing.T) {
	boom := errors.New("connection reset")
	fetch := func(ctx context.Context, offset, limit int) ([]int, error) {
		return nil, boom
	}

	_, err := Paginate(context.Background(), 5, fetch, PageRequest{Page: 1, PageSize: 5})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
