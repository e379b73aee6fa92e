// Package dashboard implements the interactive catalog browser: a paged
// list with debounced search, a detail screen, and the loading, error and
// not-found views around them.
package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/querycache"
)

// Screen is the top-level view being shown.
type Screen int

const (
	ScreenList   Screen = iota // Paged list or search results.
	ScreenDetail               // One Pokemon.
)

// Mode selects the help bar content.
type Mode int

const (
	ModeList      Mode = iota // Browsing the list.
	ModeSearching             // Typing into the search box.
	ModeDetail                // Viewing a record.
	ModeFailure               // A request failed; only reload and quit apply.
)

// Catalog is the query surface the dashboard reads from.
// *catalog.Service satisfies it.
type Catalog interface {
	ListPage(ctx context.Context, offset, limit int) (catalog.ListPage, error)
	Search(ctx context.Context, term string) (catalog.ListPage, error)
	Detail(ctx context.Context, id int) (catalog.Detail, error)
	PeekDetail(id int) (catalog.Detail, bool)
	SearchKey(term string) string
	Hold(owner string, keys ...string)
	InvalidatePokemon(id int) int
	InvalidateLists() int
	Refresh(key string) bool
	Sweep() int
}

// ListLoadedMsg carries the result of a list or search query.
type ListLoadedMsg struct {
	Key  string
	Page catalog.ListPage
	Err  error
}

// DetailLoadedMsg carries the result of a detail query for the detail screen.
type DetailLoadedMsg struct {
	ID     int
	Detail catalog.Detail
	Err    error
}

// CardLoadedMsg carries a detail fetched to decorate a list row.
type CardLoadedMsg struct {
	ID     int
	Detail catalog.Detail
	Err    error
}

// CacheEventMsg wraps a cache transition forwarded from the Bridge.
type CacheEventMsg struct {
	Event querycache.Event
}

// settleSearchMsg fires when the debounce delay for token has elapsed.
type settleSearchMsg struct {
	token uint64
}

// sweepMsg triggers a cache sweep.
type sweepMsg struct{}

// copiedMsg reports the outcome of copying the location to the clipboard.
type copiedMsg struct {
	Text string
	Err  error
}

// listQuery describes what the list screen should show.
type listQuery struct {
	offset int
	limit  int
	term   string // normalized search term; empty for paging
}

// fetchList returns a command that runs q against c.
func fetchList(c Catalog, key string, q listQuery) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		var (
			page catalog.ListPage
			err  error
		)
		if q.term != "" {
			page, err = c.Search(context.Background(), q.term)
		} else {
			page, err = c.ListPage(context.Background(), q.offset, q.limit)
		}
		return ListLoadedMsg{Key: key, Page: page, Err: err}
	}
}

// fetchDetail returns a command that loads id for the detail screen.
func fetchDetail(c Catalog, id int) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		d, err := c.Detail(context.Background(), id)
		return DetailLoadedMsg{ID: id, Detail: d, Err: err}
	}
}

// fetchCard returns a command that loads id to decorate a list row.
func fetchCard(c Catalog, id int) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		d, err := c.Detail(context.Background(), id)
		return CardLoadedMsg{ID: id, Detail: d, Err: err}
	}
}

// waitForEvent blocks on the next cache event. The model re-arms it after
// every CacheEventMsg.
func waitForEvent(events <-chan querycache.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return CacheEventMsg{Event: ev}
	}
}

func settleAfter(d time.Duration, token uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return settleSearchMsg{token: token}
	})
}

func sweepAfter(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return sweepMsg{}
	})
}

func copyLocation(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{Text: text, Err: write(text)}
	}
}
