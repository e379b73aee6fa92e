package viewstate

import "time"

// QueryKind names the query that drives the list screen.
type QueryKind int

const (
	QueryList   QueryKind = iota // paginated list
	QuerySearch                  // debounced search term
)

func (k QueryKind) String() string {
	if k == QuerySearch {
		return "search"
	}
	return "list"
}

// DefaultPageSize is the number of records per list page.
const DefaultPageSize = 20

// Controller owns the list screen's page and search state.
//
// A non-empty debounced search term suppresses pagination: page changes are
// ignored and the search query drives the screen. The page index is left
// untouched while searching, so clearing the term returns to the page that
// was selected before.
type Controller struct {
	page     int
	pageSize int
	search   Search
}

// NewController starts at the page named by loc. For a detail location the
// originating page is used.
func NewController(loc Location, pageSize int, debounce time.Duration) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := loc.PageIndex()
	if _, ok := loc.IsDetail(); ok {
		page = loc.FromPageIndex()
	}
	return &Controller{
		page:     page,
		pageSize: pageSize,
		search:   NewSearch(debounce),
	}
}

// Page is the zero-based list page.
func (c *Controller) Page() int { return c.page }

// PageSize is the number of records per page.
func (c *Controller) PageSize() int { return c.pageSize }

// Offset is the record offset of the current page.
func (c *Controller) Offset() int { return Offset(c.page, c.pageSize) }

// Location is the list address of the current page.
func (c *Controller) Location() Location { return ListLocation(c.page) }

// ActiveQuery reports which query drives the list screen.
func (c *Controller) ActiveQuery() QueryKind {
	if c.search.Active() {
		return QuerySearch
	}
	return QueryList
}

// SetPage moves to a zero-based page. It is ignored while a search is active
// and reports whether the page changed.
func (c *Controller) SetPage(pageIndex int) bool {
	if c.search.Active() {
		return false
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex == c.page {
		return false
	}
	c.page = pageIndex
	return true
}

// NextPage advances one page when total says one exists. A non-positive
// total means the count is not known yet and the move is allowed.
func (c *Controller) NextPage(total int) bool {
	if count := PageCount(total, c.pageSize); total > 0 && c.page+1 >= count {
		return false
	}
	return c.SetPage(c.page + 1)
}

// PrevPage goes back one page.
func (c *Controller) PrevPage() bool {
	if c.page == 0 {
		return false
	}
	return c.SetPage(c.page - 1)
}

// Correct moves to the last valid page when the current one is past the end
// of a list of total records. It reports whether a correction was made.
// Search results are never corrected.
func (c *Controller) Correct(total int) bool {
	if c.search.Active() {
		return false
	}
	idx, changed := Correct(c.page, total, c.pageSize)
	if changed {
		c.page = idx
	}
	return changed
}

// Input records search input and returns the token to settle after Debounce.
func (c *Controller) Input(v string) uint64 { return c.search.Input(v) }

// Settle applies the debounced term for token. It reports whether the
// active query changed.
func (c *Controller) Settle(token uint64) bool { return c.search.Settle(token) }

// ClearSearch drops the search and returns to the page selected before it.
func (c *Controller) ClearSearch() bool { return c.search.Clear() }

// Debounce is the search debounce delay.
func (c *Controller) Debounce() time.Duration { return c.search.Delay() }

// RawSearch is the search input as typed.
func (c *Controller) RawSearch() string { return c.search.Raw() }

// SearchTerm is the debounced search term.
func (c *Controller) SearchTerm() string { return c.search.Term() }

// SearchPending reports whether typed input has not settled yet.
func (c *Controller) SearchPending() bool { return c.search.Pending() }

// DetailLocation is the address of a record opened from the current page.
func (c *Controller) DetailLocation(id int) Location {
	return DetailLocation(id, c.page)
}

// Restore moves to the list page named by a list location, clearing any
// search. It is used when navigating back from a detail screen.
func (c *Controller) Restore(loc Location) {
	c.search.Clear()
	c.page = loc.PageIndex()
}
