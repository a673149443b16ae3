package hako

import (
	"github.com/edwinsyarief/hako/internal/assert"
)

// column is the type-erased view of a pagedStore used by archetypes, command
// buffers and the structural pass.
type column interface {
	typeID() ComponentTypeID
	len() int
	pageCount() int

	// extend appends one zero row and returns its index.
	extend() int
	// copyRow overwrites row dst with row src of another store of the same type.
	copyRow(dst int, from column, src int)
	// swapRemove moves the last row into row and shrinks by one. The value
	// that was at row is overwritten without being destructed.
	swapRemove(row int)
	// destruct calls Destroy on the value at row, if the type implements it,
	// and zeroes it.
	destruct(row int)
	// reset zeroes every live row and empties the store. Pages are kept.
	reset()
}

var _ column = (*pagedStore[struct{}])(nil)

// pagedStore keeps values of one type in fixed-size pages. A page is never
// reallocated once created, so &pages[p][i] is stable until that row is
// removed or the store is reset.
type pagedStore[T any] struct {
	id       ComponentTypeID
	pageSize int
	pages    [][]T
	n        int
	destroys bool
}

func newPagedStore[T any](id ComponentTypeID, pageSize int) *pagedStore[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	_, destroys := any((*T)(nil)).(Destroyer)
	return &pagedStore[T]{id: id, pageSize: pageSize, destroys: destroys}
}

func (s *pagedStore[T]) typeID() ComponentTypeID { return s.id }
func (s *pagedStore[T]) len() int                { return s.n }

// pageCount returns the number of pages holding at least one live row.
func (s *pagedStore[T]) pageCount() int {
	return (s.n + s.pageSize - 1) / s.pageSize
}

// at returns a pointer to the value at row.
func (s *pagedStore[T]) at(row int) *T {
	assert.That(row >= 0 && row < s.n, "hako: row %d out of range [0,%d)", row, s.n)
	return &s.pages[row/s.pageSize][row%s.pageSize]
}

// page returns the live rows of page p.
func (s *pagedStore[T]) page(p int) []T {
	start := p * s.pageSize
	assert.That(start < s.n, "hako: page %d out of range", p)
	return s.pages[p][:min(s.n-start, s.pageSize)]
}

func (s *pagedStore[T]) grow() {
	if s.n == len(s.pages)*s.pageSize {
		s.pages = append(s.pages, make([]T, s.pageSize))
	}
}

// push appends v and returns its row.
func (s *pagedStore[T]) push(v T) int {
	s.grow()
	row := s.n
	s.n++
	s.pages[row/s.pageSize][row%s.pageSize] = v
	return row
}

func (s *pagedStore[T]) extend() int {
	s.grow()
	s.n++
	return s.n - 1
}

func (s *pagedStore[T]) copyRow(dst int, from column, src int) {
	other, ok := from.(*pagedStore[T])
	assert.That(ok, "hako: copy between stores of different types")
	*s.at(dst) = *other.at(src)
}

func (s *pagedStore[T]) swapRemove(row int) {
	last := s.n - 1
	if row != last {
		*s.at(row) = *s.at(last)
	}
	var zero T
	*s.at(last) = zero
	s.n--
}

func (s *pagedStore[T]) destruct(row int) {
	p := s.at(row)
	if s.destroys {
		any(p).(Destroyer).Destroy()
	}
	var zero T
	*p = zero
}

func (s *pagedStore[T]) reset() {
	var zero T
	for p := 0; p < s.pageCount(); p++ {
		page := s.pages[p]
		for i := range min(s.n-p*s.pageSize, s.pageSize) {
			page[i] = zero
		}
	}
	s.n = 0
}
