// Package pagination splits ordered listings into fixed-size pages.
//
// Page numbers are 1-based and come straight from the "page" query
// parameter, so Resolve never fails: garbage falls back to the first page
// and anything out of range lands on the last one.
package pagination

import (
	"strconv"
	"strings"
)

// PerPage is the number of items on every listing page.
const PerPage = 10

// Page is one slice of a listing plus the numbers needed to render a pager.
type Page[T any] struct {
	Number   int
	NumPages int
	Count    int64
	Items    []T
}

// Window describes which rows of a listing a page covers.
type Window struct {
	Number   int
	NumPages int
	Offset   int
	Limit    int
}

// NumPages returns the page count for count items. An empty listing still
// has one (empty) page.
func NumPages(count int64) int {
	if count <= 0 {
		return 1
	}
	return int((count + PerPage - 1) / PerPage)
}

// Resolve turns a raw page parameter into a valid page window.
func Resolve(raw string, count int64) Window {
	numPages := NumPages(count)

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Offset:   (number - 1) * PerPage,
		Limit:    PerPage,
	}
}

// NewPage builds a page from a window and the rows fetched for it. The
// items are copied so the page stays a snapshot of what was fetched.
func NewPage[T any](w Window, count int64, items []T) Page[T] {
	snapshot := make([]T, len(items))
	copy(snapshot, items)
	return Page[T]{
		Number:   w.Number,
		NumPages: w.NumPages,
		Count:    count,
		Items:    snapshot,
	}
}

func (p Page[T]) Len() int { return len(p.Items) }
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }
func (p Page[T]) NextPageNumber() int { return p.Number + 1 }
func (p Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// PageRange lists every page number, for rendering a full pager.
func (p Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
