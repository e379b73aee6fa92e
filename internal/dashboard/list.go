package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/dex/internal/catalog"
)

// CursorMarker is the prefix shown on the selected row.
const CursorMarker = "▸ "

// listState holds the rows of the active list or search query, the cursor,
// and the per-row detail records used to colour type badges.
type listState struct {
	key        string // cache key of the active query
	term       string // settled search term; empty when paging
	page       catalog.ListPage
	cursor     int
	loading    bool // no rows yet for key
	loaded     bool // at least one result has been applied
	refreshing bool // rows are shown while a newer copy is fetched

	cards   map[int]catalog.Detail
	cardErr map[int]error
	pending map[int]bool
}

func newListState() listState {
	return listState{
		loading: true,
		cards:   make(map[int]catalog.Detail),
		cardErr: make(map[int]error),
		pending: make(map[int]bool),
	}
}

// begin switches the state to a new query. Rows stay visible until the
// new result lands only when the key is unchanged.
func (ls listState) begin(key, term string) listState {
	if key == ls.key && ls.loaded {
		return ls
	}
	ls.key = key
	ls.term = term
	ls.loading = true
	ls.refreshing = false
	ls.cursor = 0
	return ls
}

// apply stores a successful result for the active key.
func (ls listState) apply(page catalog.ListPage) listState {
	ls.loading = false
	ls.refreshing = false
	ls.loaded = true
	ls.page = page
	if ls.cursor >= len(page.Items) {
		ls.cursor = max(len(page.Items)-1, 0)
	}
	return ls
}

// Update processes cursor keys. Other messages are routed by the Model.
func (ls listState) Update(msg tea.Msg) (listState, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || ls.loading {
		return ls, nil
	}
	n := len(ls.page.Items)
	if n == 0 {
		return ls, nil
	}
	switch km.String() {
	case "up", "k":
		ls.cursor--
		if ls.cursor < 0 {
			ls.cursor = n - 1
		}
	case "down", "j":
		ls.cursor++
		if ls.cursor >= n {
			ls.cursor = 0
		}
	case "home", "g":
		ls.cursor = 0
	case "end", "G":
		ls.cursor = n - 1
	}
	return ls, nil
}

// Selected returns the row under the cursor. Rows without a derivable id
// cannot be opened.
func (ls listState) Selected() (catalog.ListItem, bool) {
	if ls.cursor < 0 || ls.cursor >= len(ls.page.Items) {
		return catalog.ListItem{}, false
	}
	it := ls.page.Items[ls.cursor]
	return it, it.KnownID()
}

// missingCards returns the ids on the page with no record, error or
// pending fetch.
func (ls listState) missingCards() []int {
	var ids []int
	for _, it := range ls.page.Items {
		if !it.KnownID() {
			continue
		}
		if _, ok := ls.cards[it.ID]; ok {
			continue
		}
		if _, ok := ls.cardErr[it.ID]; ok || ls.pending[it.ID] {
			continue
		}
		ids = append(ids, it.ID)
	}
	return ids
}

// cardKeys returns the detail cache keys the visible rows depend on.
func (ls listState) cardKeys() []string {
	var keys []string
	for _, it := range ls.page.Items {
		if it.KnownID() {
			keys = append(keys, catalog.DetailKey(it.ID))
		}
	}
	return keys
}

// onPage reports whether id is one of the visible rows.
func (ls listState) onPage(id int) bool {
	for _, it := range ls.page.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// View renders the rows for the given dimensions.
// spinnerView is the current spinner frame.
func (ls listState) View(width, height int, spinnerView string) string {
	if ls.loading {
		return fmt.Sprintf("%s Loading Pokemon...", spinnerView)
	}

	var b strings.Builder
	if ls.term != "" {
		fmt.Fprintf(&b, "Found %d Pokemon matching %q", ls.page.TotalCount, ls.term)
		height--
	}

	if len(ls.page.Items) == 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if ls.term != "" {
			b.WriteString("No Pokemon found matching your search.")
		} else {
			b.WriteString("No Pokemon available.")
		}
		return b.String()
	}

	start, end := window(len(ls.page.Items), ls.cursor, height)
	for i := start; i < end; i++ {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if i == ls.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(ls.row(ls.page.Items[i]))
	}
	return b.String()
}

// row renders one item: number, name, and type badges once its record
// has arrived.
func (ls listState) row(it catalog.ListItem) string {
	name := catalog.DisplayName(it.Name)
	if !it.KnownID() {
		return mutedText.Render(catalog.FormatID(0) + " " + name)
	}
	line := mutedText.Render(catalog.FormatID(it.ID)) + " "
	d, ok := ls.cards[it.ID]
	if !ok {
		if _, failed := ls.cardErr[it.ID]; failed {
			return line + name + " " + mutedText.Render("(details unavailable)")
		}
		return line + name
	}
	line += TypeName(d.PrimaryType(), name)
	for _, t := range d.Types {
		line += " " + TypeBadge(t.Name)
	}
	return line
}

// window returns the slice of n rows to show so that cursor stays visible
// within height lines.
func window(n, cursor, height int) (start, end int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start = cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
