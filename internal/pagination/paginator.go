// Package pagination splits ordered result sets into fixed-size pages.
//
// Page numbers come straight from the query string and are never rejected: a missing or
// non-numeric value selects the first page, and a number outside the valid range selects the
// last page.
package pagination

import (
	"context"
	"strconv"
	"strings"
)

// PerPage is the number of items on every page.
const PerPage = 10

// Page is one slice of a larger ordered result set.
type Page[T any] struct {
	Items    []T
	Number   int // 1-based
	NumPages int
	Total    int
	PerPage  int
}

func (p Page[T]) Len() int { return len(p.Items) }

func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

func (p Page[T]) NextPageNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p Page[T]) PreviousPageNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// StartIndex is the 1-based position of the first item on the page, 0 for an empty page.
func (p Page[T]) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// EndIndex is the 1-based position of the last item on the page.
func (p Page[T]) EndIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.StartIndex() + len(p.Items) - 1
}

// PageRange lists every page number, for rendering page links.
func (p Page[T]) PageRange() []int {
	numbers := make([]int, p.NumPages)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}

// Window describes which rows a page covers.
type Window struct {
	Number   int
	NumPages int
	Limit    int
	Offset   int
}

// Resolve turns a raw page parameter and the total item count into a concrete window.
func Resolve(raw string, total, perPage int) Window {
	if perPage <= 0 {
		perPage = PerPage
	}
	numPages := 1
	if total > 0 {
		numPages = (total + perPage - 1) / perPage
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1, number > numPages:
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Limit:    perPage,
		Offset:   (number - 1) * perPage,
	}
}

// Slice pages an in-memory, already ordered slice.
func Slice[T any](items []T, raw string) Page[T] {
	w := Resolve(raw, len(items), PerPage)
	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Items:    items[w.Offset:end],
		Number:   w.Number,
		NumPages: w.NumPages,
		Total:    len(items),
		PerPage:  w.Limit,
	}
}

// Query pages a storage-backed result set: count is asked for the total, then fetch loads
// exactly the rows of the resolved page.
func Query[T any](
	ctx context.Context,
	raw string,
	count func(ctx context.Context) (int, error),
	fetch func(ctx context.Context, limit, offset int) ([]T, error),
) (Page[T], error) {
	total, err := count(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	w := Resolve(raw, total, PerPage)
	items := []T{}
	if total > 0 {
		items, err = fetch(ctx, w.Limit, w.Offset)
		if err != nil {
			return Page[T]{}, err
		}
	}

	return Page[T]{
		Items:    items,
		Number:   w.Number,
		NumPages: w.NumPages,
		Total:    total,
		PerPage:  w.Limit,
	}, nil
}
