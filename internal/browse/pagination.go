package browse

// windowSize is the maximum number of page buttons shown at once.
const windowSize = 5

// Window returns the page numbers to display for the current page. At most
// five pages are returned, keeping current centred when there is room.
func Window(current, total int) []int {
	if total <= 0 {
		return nil
	}
	current = min(max(current, 1), total)

	var first, last int
	switch {
	case total <= windowSize:
		first, last = 1, total
	case current <= 3:
		first, last = 1, windowSize
	case current >= total-2:
		first, last = total-windowSize+1, total
	default:
		first, last = current-2, current+2
	}

	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Pager is the rendered state of the pagination bar. Hidden is set when
// there is only one page.
type Pager struct {
	Pages        []int
	Current      int
	Total        int
	PrevDisabled bool
	NextDisabled bool
	Hidden       bool
}

// NewPager builds the pagination bar for current out of total pages.
func NewPager(current, total int) Pager {
	return Pager{
		Pages:        Window(current, total),
		Current:      current,
		Total:        total,
		PrevDisabled: current <= 1,
		NextDisabled: current >= total,
		Hidden:       total <= 1,
	}
}

// Prev returns the previous page, or the current one at the start.
func (p Pager) Prev() int {
	if p.PrevDisabled {
		return p.Current
	}
	return p.Current - 1
}

// Next returns the next page, or the current one at the end.
func (p Pager) Next() int {
	if p.NextDisabled {
		return p.Current
	}
	return p.Current + 1
}
