package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/pokeapi"
	"github.com/smileynet/dex/internal/querycache"
	"github.com/smileynet/dex/internal/viewstate"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// statusBarHeight is the number of lines reserved for the location line.
const statusBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// headerHeight is the search box plus the blank line under it.
const headerHeight = 2

// Hold owners. Each screen replaces its own set of referenced keys.
const (
	listOwner   = "list"
	detailOwner = "detail"
)

// Option configures a Model.
type Option func(*Model)

// WithCatalog sets the query source. Without one the model renders but
// never loads anything.
func WithCatalog(c Catalog) Option {
	return func(m *Model) { m.catalog = c }
}

// WithEvents subscribes the model to cache transitions.
func WithEvents(events <-chan querycache.Event) Option {
	return func(m *Model) { m.events = events }
}

// WithLocation sets the starting location.
func WithLocation(loc viewstate.Location) Option {
	return func(m *Model) { m.start = loc }
}

// WithPageSize sets the number of rows per list page.
func WithPageSize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithDebounce sets the search debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) { m.debounce = d }
}

// WithSweepInterval sets how often unreferenced cache entries are swept.
// Zero disables sweeping.
func WithSweepInterval(d time.Duration) Option {
	return func(m *Model) { m.sweepEvery = d }
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// WithPrefetch controls fetching detail records for visible rows.
func WithPrefetch(on bool) Option {
	return func(m *Model) { m.prefetch = on }
}

// Model is the root Bubble Tea model for the catalog browser.
type Model struct {
	catalog    Catalog
	events     <-chan querycache.Event
	copy       func(string) error
	start      viewstate.Location
	pageSize   int
	debounce   time.Duration
	sweepEvery time.Duration
	prefetch   bool

	ctrl    viewstate.Controller
	history viewstate.History
	screen  Screen
	list    listState
	detail  detailState
	failure error
	flash   string

	width    int
	height   int
	input    textinput.Model
	pager    paginator.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
}

// NewModel creates a Model positioned at the starting location.
func NewModel(opts ...Option) Model {
	m := Model{
		copy:     clipboard.WriteAll,
		start:    viewstate.ListLocation(0),
		pageSize: viewstate.DefaultPageSize,
		prefetch: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.ctrl = *viewstate.NewController(m.start, m.pageSize, m.debounce)

	m.input = textinput.New()
	m.input.Prompt = "/ "
	m.input.Placeholder = "Search Pokemon..."
	m.input.CharLimit = 50
	m.input.Cursor.SetMode(cursor.CursorStatic)

	m.pager = paginator.New()
	m.pager.Type = paginator.Arabic
	m.pager.ArabicFormat = "Page %d of %d"
	m.pager.PerPage = m.pageSize

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot

	m.viewport = viewport.New(0, 0)
	m.help = help.New()

	m.list = newListState()
	if id, ok := m.start.IsDetail(); ok {
		m.screen = ScreenDetail
		m.detail = newDetailState(id, m.start)
	} else {
		key, _ := m.listQuery()
		m.list = m.list.begin(key, "")
		m.pager.Page = m.ctrl.Page()
	}
	return m
}

// Init starts the spinner, the event subscription and the first query.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForEvent(m.events), sweepAfter(m.sweepEvery)}
	if m.screen == ScreenDetail {
		cmds = append(cmds, fetchDetail(m.catalog, m.detail.id))
	} else {
		_, cmd := m.listQuery()
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Screen returns the active screen.
func (m Model) Screen() Screen {
	return m.screen
}

// Failure returns the error shown by the failure view, if any.
func (m Model) Failure() error {
	return m.failure
}

// Location returns the address of what is on screen.
func (m Model) Location() viewstate.Location {
	if m.screen == ScreenDetail {
		return m.detail.loc
	}
	return m.ctrl.Location()
}

// Mode returns the help mode for the current state.
func (m Model) Mode() Mode {
	switch {
	case m.failure != nil:
		return ModeFailure
	case m.screen == ScreenDetail:
		return ModeDetail
	case m.input.Focused():
		return ModeSearching
	default:
		return ModeList
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-borderChrome-len(m.input.Prompt)-1, 10)
		m.viewport.Width = max(msg.Width-borderChrome, 0)
		m.viewport.Height = max(m.contentHeight()-1, 1)
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ListLoadedMsg:
		return m.handleListLoaded(msg)

	case CardLoadedMsg:
		delete(m.list.pending, msg.ID)
		if msg.Err != nil {
			m.list.cardErr[msg.ID] = msg.Err
		} else {
			delete(m.list.cardErr, msg.ID)
			m.list.cards[msg.ID] = msg.Detail
		}
		return m, nil

	case DetailLoadedMsg:
		return m.handleDetailLoaded(msg)

	case CacheEventMsg:
		return m.handleCacheEvent(msg.Event)

	case settleSearchMsg:
		if m.ctrl.Settle(msg.token) {
			return m.reloadList()
		}
		return m, nil

	case sweepMsg:
		if m.catalog != nil {
			m.catalog.Sweep()
		}
		return m, sweepAfter(m.sweepEvery)

	case copiedMsg:
		if msg.Err != nil {
			m.flash = "copy failed: " + msg.Err.Error()
		} else {
			m.flash = "copied " + msg.Text
		}
		return m, nil

	case tea.FocusMsg:
		return m.handleFocus()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// listQuery returns the cache key and fetch command for the controller's
// active query.
func (m Model) listQuery() (string, tea.Cmd) {
	q := listQuery{offset: m.ctrl.Offset(), limit: m.ctrl.PageSize()}
	key := catalog.ListKey(q.offset, q.limit)
	if m.ctrl.ActiveQuery() == viewstate.QuerySearch {
		q.term = catalog.NormalizeTerm(m.ctrl.SearchTerm())
		if m.catalog != nil {
			key = m.catalog.SearchKey(q.term)
		}
	}
	return key, fetchList(m.catalog, key, q)
}

// reloadList points the list at the controller's active query.
func (m Model) reloadList() (Model, tea.Cmd) {
	key, cmd := m.listQuery()
	term := ""
	if m.ctrl.ActiveQuery() == viewstate.QuerySearch {
		term = m.ctrl.SearchTerm()
	}
	m.list = m.list.begin(key, term)
	m.pager.Page = m.ctrl.Page()
	m.flash = ""
	return m, cmd
}

func (m Model) handleListLoaded(msg ListLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Key != m.list.key {
		return m, nil
	}
	if msg.Err != nil {
		m.list.loading = false
		m.list.refreshing = false
		if m.screen == ScreenList {
			m.failure = msg.Err
		}
		return m, nil
	}

	m.list = m.list.apply(msg.Page)
	if m.list.term == "" && m.ctrl.Correct(msg.Page.TotalCount) {
		return m.reloadList()
	}
	m.pager.SetTotalPages(msg.Page.TotalCount)
	m.pager.Page = m.ctrl.Page()

	if m.catalog != nil {
		m.catalog.Hold(listOwner, append([]string{m.list.key}, m.list.cardKeys()...)...)
		m.seedCards()
	}
	if !m.prefetch {
		return m, nil
	}
	var cmds []tea.Cmd
	for _, id := range m.list.missingCards() {
		m.list.pending[id] = true
		cmds = append(cmds, fetchCard(m.catalog, id))
	}
	return m, tea.Batch(cmds...)
}

// seedCards fills row records that are already cached, so rows seen before
// render in colour without another fetch.
func (m *Model) seedCards() {
	for _, it := range m.list.page.Items {
		if !it.KnownID() {
			continue
		}
		if _, ok := m.list.cards[it.ID]; ok {
			continue
		}
		if d, ok := m.catalog.PeekDetail(it.ID); ok {
			m.list.cards[it.ID] = d
		}
	}
}

func (m Model) handleDetailLoaded(msg DetailLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil && m.list.onPage(msg.ID) {
		m.list.cards[msg.ID] = msg.Detail
	}
	if m.screen != ScreenDetail || msg.ID != m.detail.id {
		return m, nil
	}
	if msg.Err != nil {
		m.detail.loading = false
		m.detail.refreshing = false
		if isNotFound(msg.Err) {
			m.detail.notFound = true
			return m, nil
		}
		m.failure = msg.Err
		return m, nil
	}
	m.detail = m.detail.apply(msg.ID, msg.Detail)
	m.syncViewport()
	if m.catalog != nil {
		m.catalog.Hold(detailOwner, catalog.DetailKey(msg.ID))
	}
	return m, nil
}

// handleCacheEvent reacts to transitions of the keys on screen: a newer
// value or an invalidation refetches, a failure surfaces the error view.
func (m Model) handleCacheEvent(ev querycache.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.events)

	switch {
	case m.screen == ScreenList && ev.Key == m.list.key:
		switch ev.Kind {
		case querycache.EventPending:
			m.list.refreshing = m.list.loaded
		case querycache.EventReady, querycache.EventInvalidated:
			_, cmd := m.listQuery()
			return m, tea.Batch(next, cmd)
		case querycache.EventError:
			m.list.refreshing = false
			if ev.Err != nil {
				m.failure = ev.Err
			}
		}

	case m.screen == ScreenDetail && ev.Key == catalog.DetailKey(m.detail.id):
		switch ev.Kind {
		case querycache.EventPending:
			m.detail.refreshing = m.detail.loaded
		case querycache.EventReady, querycache.EventInvalidated:
			return m, tea.Batch(next, fetchDetail(m.catalog, m.detail.id))
		case querycache.EventError:
			m.detail.refreshing = false
			if isNotFound(ev.Err) {
				m.detail.notFound = true
			} else if ev.Err != nil {
				m.failure = ev.Err
			}
		}

	case m.screen == ScreenList && ev.Kind == querycache.EventInvalidated:
		for _, it := range m.list.page.Items {
			if it.KnownID() && ev.Key == catalog.DetailKey(it.ID) && !m.list.pending[it.ID] {
				m.list.pending[it.ID] = true
				return m, tea.Batch(next, fetchCard(m.catalog, it.ID))
			}
		}
	}
	return m, next
}

func isNotFound(err error) bool {
	return errors.Is(err, pokeapi.ErrNotFound) || errors.Is(err, catalog.ErrUnknownID)
}

// handleKey processes key messages with global and screen-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.input.Focused() {
		return m.handleSearchKey(msg)
	}
	if m.failure != nil {
		switch msg.String() {
		case "r":
			return m.reload()
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.screen == ScreenDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.input.Blur()
		return m, nil
	case "ctrl+u":
		return m.clearSearch()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		token := m.ctrl.Input(v)
		return m, tea.Batch(cmd, settleAfter(m.ctrl.Debounce(), token))
	}
	return m, cmd
}

// clearSearch empties the search box and, if a search was active,
// returns to the page that was selected before it.
func (m Model) clearSearch() (Model, tea.Cmd) {
	m.input.SetValue("")
	if m.ctrl.ClearSearch() {
		return m.reloadList()
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		return m, m.input.Focus()
	case "esc":
		if m.ctrl.ActiveQuery() == viewstate.QuerySearch || m.input.Value() != "" {
			return m.clearSearch()
		}
		return m, nil
	case "left", "h", "[":
		if m.ctrl.PrevPage() {
			return m.reloadList()
		}
		return m, nil
	case "right", "l", "]":
		if !m.list.loading && m.ctrl.NextPage(m.list.page.TotalCount) {
			return m.reloadList()
		}
		return m, nil
	case "enter":
		it, ok := m.list.Selected()
		if !ok {
			return m, nil
		}
		m.history.Push(m.ctrl.Location())
		return m.openDetail(it.ID, m.ctrl.DetailLocation(it.ID))
	case "r":
		return m.reload()
	case "y":
		return m, copyLocation(m.copy, m.Location().String())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "b", "backspace":
		return m.back()
	case "left", "h", "p":
		if m.detail.id > 1 {
			id := m.detail.id - 1
			return m.openDetail(id, m.detail.loc.WithRecord(id))
		}
		return m, nil
	case "right", "l", "n":
		id := m.detail.id + 1
		return m.openDetail(id, m.detail.loc.WithRecord(id))
	case "r":
		return m.reload()
	case "y":
		return m, copyLocation(m.copy, m.Location().String())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) openDetail(id int, loc viewstate.Location) (Model, tea.Cmd) {
	m.screen = ScreenDetail
	m.detail = newDetailState(id, loc)
	m.flash = ""
	m.viewport.SetContent("")
	m.viewport.GotoTop()
	return m, fetchDetail(m.catalog, id)
}

// back returns to the list. The page comes from navigation history when the
// detail was opened from the list, otherwise from the detail's fromPage.
func (m Model) back() (Model, tea.Cmd) {
	if m.catalog != nil {
		m.catalog.Hold(detailOwner)
	}
	loc, ok := m.history.Pop()
	if !ok {
		loc = m.detail.loc.Back()
	}
	m.screen = ScreenList
	m.detail = detailState{}
	m.flash = ""
	if ok && m.list.loaded {
		_, cmd := m.listQuery()
		return m, cmd
	}
	m.ctrl.Restore(loc)
	m.input.SetValue("")
	return m.reloadList()
}

// reload clears any failure and refetches what is on screen, marking the
// cached copy stale first. Reloading out of the failure view marks every
// listing stale; a healthy list only refreshes its own query.
func (m Model) reload() (Model, tea.Cmd) {
	failed := m.failure != nil
	m.failure = nil
	m.flash = ""
	if m.screen == ScreenDetail {
		m.detail.notFound = false
		if !m.detail.loaded {
			m.detail.loading = true
		}
		if m.catalog != nil {
			m.catalog.InvalidatePokemon(m.detail.id)
		}
		return m, fetchDetail(m.catalog, m.detail.id)
	}

	if m.catalog != nil {
		if failed {
			m.catalog.InvalidateLists()
		} else {
			m.catalog.Refresh(m.list.key)
		}
	}
	if !m.list.loaded {
		m.list.loading = true
	}
	_, cmd := m.listQuery()
	return m, cmd
}

// handleFocus refetches the visible list or search when the terminal
// regains focus. The cached page stays on screen while the refetch runs.
func (m Model) handleFocus() (tea.Model, tea.Cmd) {
	if m.catalog == nil || m.screen != ScreenList || m.failure != nil || m.list.loading {
		return m, nil
	}
	m.catalog.Refresh(m.list.key)
	_, cmd := m.listQuery()
	return m, cmd
}

// syncViewport re-renders the loaded record at the current width.
func (m *Model) syncViewport() {
	if m.screen == ScreenDetail && m.detail.loaded {
		m.viewport.SetContent(renderDetail(m.detail.detail, m.viewport.Width))
	}
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, the status line and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - statusBarHeight - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the active screen with the status line and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	style := FocusedBorder()
	var body string
	switch {
	case m.failure != nil:
		body = failureView(m.failure)
	case m.screen == ScreenDetail:
		body = m.viewDetail()
		if m.detail.loaded && !m.detail.notFound {
			style = TypeBorder(m.detail.detail.PrimaryType())
		}
	default:
		body = m.viewList()
	}

	pane := style.
		Width(max(m.width-borderChrome, 0)).
		Height(m.contentHeight()).
		Render(body)
	helpView := m.help.View(HelpBindings(m.Mode()))
	return lipgloss.JoinVertical(lipgloss.Left, pane, m.statusLine(), helpView)
}

func (m Model) viewList() string {
	height := m.contentHeight() - headerHeight
	showPager := m.list.term == "" && m.pager.TotalPages > 1
	if showPager {
		height -= 2
	}
	body := m.input.View() + "\n\n" + m.list.View(m.width-borderChrome, height, m.spinner.View())
	if showPager && !m.list.loading {
		body += "\n\n" + mutedText.Render(m.pager.View())
	}
	return body
}

func (m Model) viewDetail() string {
	if !m.detail.loaded || m.detail.notFound {
		return m.detail.View(m.width-borderChrome, m.contentHeight(), m.spinner.View())
	}
	return m.viewport.View() + "\n" + navHint(m.detail.id)
}

func (m Model) statusLine() string {
	line := m.Location().String()
	switch {
	case m.list.refreshing && m.screen == ScreenList,
		m.detail.refreshing && m.screen == ScreenDetail:
		line += "  " + m.spinner.View() + " refreshing"
	case m.ctrl.SearchPending():
		line += "  searching..."
	}
	if m.flash != "" {
		line += "  " + m.flash
	}
	return statusText.Render(fmt.Sprintf(" %s", line))
}
