package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/pokeapi"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// drain runs cmd and feeds every dashboard message it produces back into
// the model until no commands remain. Spinner ticks and other widget
// messages are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("drain: command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case ListLoadedMsg, CardLoadedMsg, DetailLoadedMsg, settleSearchMsg, copiedMsg:
			updated, next := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, next)
		}
	}
	return m
}

// press sends a key to the model and returns the new model and command.
func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+u":
		msg = tea.KeyMsg{Type: tea.KeyCtrlU}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// pressDrain sends a key and drains the resulting commands.
func pressDrain(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, cmd := press(m, k)
	return drain(t, m, cmd)
}

// typeText types s into the focused search box and returns the commands
// produced by each keystroke.
func typeText(m Model, s string) (Model, []tea.Cmd) {
	var cmds []tea.Cmd
	for _, r := range s {
		var cmd tea.Cmd
		m, cmd = press(m, string(r))
		cmds = append(cmds, cmd)
	}
	return m, cmds
}

// loadedModel builds a sized model over c and runs its initial load.
func loadedModel(t *testing.T, c *stubCatalog, opts ...Option) Model {
	t.Helper()
	base := []Option{WithCatalog(c), WithDebounce(time.Millisecond), WithClipboard(func(string) error { return nil })}
	m := NewModel(append(base, opts...)...)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return drain(t, updated.(Model), m.Init())
}

// stubCatalog is an in-memory Catalog of total records numbered from 1.
type stubCatalog struct {
	mu          sync.Mutex
	total       int
	listErr     error
	detailErr   map[int]error
	listCalls   int
	searchCalls int
	detailCalls int
	holds       map[string][]string
	cached      map[int]catalog.Detail
	invalidated []string
	sweeps      int
}

func newStubCatalog(total int) *stubCatalog {
	return &stubCatalog{
		total:     total,
		detailErr: make(map[int]error),
		holds:     make(map[string][]string),
		cached:    make(map[int]catalog.Detail),
	}
}

func stubName(id int) string {
	switch id {
	case 1:
		return "bulbasaur"
	case 2:
		return "ivysaur"
	case 3:
		return "venusaur"
	case 25:
		return "pikachu"
	}
	return fmt.Sprintf("mon-%d", id)
}

func stubItem(id int) catalog.ListItem {
	return catalog.ListItem{
		Name:      stubName(id),
		SourceURL: fmt.Sprintf("https://pokeapi.co/api/v2/pokemon/%d/", id),
		ID:        id,
	}
}

func (s *stubCatalog) ListPage(_ context.Context, offset, limit int) (catalog.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return catalog.ListPage{}, s.listErr
	}
	page := catalog.ListPage{TotalCount: s.total}
	for id := offset + 1; id <= min(offset+limit, s.total); id++ {
		page.Items = append(page.Items, stubItem(id))
	}
	return page, nil
}

func (s *stubCatalog) Search(_ context.Context, term string) (catalog.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	if s.listErr != nil {
		return catalog.ListPage{}, s.listErr
	}
	all := make([]catalog.ListItem, 0, s.total)
	for id := 1; id <= s.total; id++ {
		all = append(all, stubItem(id))
	}
	items := catalog.FilterByName(all, term)
	return catalog.ListPage{TotalCount: len(items), Items: items}, nil
}

func (s *stubCatalog) Detail(_ context.Context, id int) (catalog.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailCalls++
	if err := s.detailErr[id]; err != nil {
		return catalog.Detail{}, err
	}
	if id <= 0 || id > s.total {
		return catalog.Detail{}, &pokeapi.Error{Op: "pokemon", Kind: pokeapi.ErrNotFound, Status: 404}
	}
	d := catalog.Detail{
		ID:     id,
		Name:   stubName(id),
		Height: 7,
		Weight: 69,
		Stats: []catalog.Stat{
			{Name: "hp", BaseStat: 45},
			{Name: "special-attack", BaseStat: 65},
		},
		Abilities: []catalog.Ability{
			{Name: "overgrow", Slot: 1},
			{Name: "chlorophyll", IsHidden: true, Slot: 3},
		},
		FetchedAt: time.Now(),
	}
	switch {
	case id <= 3:
		d.Types = []catalog.TypeSlot{{Slot: 1, Name: "grass"}, {Slot: 2, Name: "poison"}}
		d.Sprite = catalog.SpriteURL(id)
	case id == 25:
		d.Types = []catalog.TypeSlot{{Slot: 1, Name: "electric"}}
		d.Sprite = catalog.SpriteURL(id)
	default:
		d.Types = []catalog.TypeSlot{{Slot: 1, Name: "normal"}}
	}
	return d, nil
}

func (s *stubCatalog) SearchKey(term string) string {
	return "search?q=" + term
}

func (s *stubCatalog) Hold(owner string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[owner] = append([]string(nil), keys...)
}

func (s *stubCatalog) PeekDetail(id int) (catalog.Detail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.cached[id]
	return d, ok
}

func (s *stubCatalog) InvalidatePokemon(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, catalog.PokemonTag(id).String())
	return 1
}

func (s *stubCatalog) InvalidateLists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, "lists")
	return 1
}

func (s *stubCatalog) Refresh(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, key)
	return true
}

func (s *stubCatalog) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	return 0
}

func (s *stubCatalog) calls() (list, search, detail int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, s.searchCalls, s.detailCalls
}

func (s *stubCatalog) held(owner string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.holds[owner]...)
}
