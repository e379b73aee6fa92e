package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/config"
	"github.com/smileynet/dex/internal/dashboard"
	"github.com/smileynet/dex/internal/logging"
	"github.com/smileynet/dex/internal/pokeapi"
	"github.com/smileynet/dex/internal/querycache"
	"github.com/smileynet/dex/internal/report"
	"github.com/smileynet/dex/internal/viewstate"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `help:"Extra config file, applied after the user and project files." type:"path"`
	BaseURL string `help:"Override the PokeAPI base URL." name:"base-url"`
}

// CLI is the top-level command structure for dex.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Browse  BrowseCmd        `cmd:"" help:"Open the interactive catalog browser."`
	List    ListCmd          `cmd:"" help:"Print one page of the catalog."`
	Search  SearchCmd        `cmd:"" help:"Print Pokemon whose names contain a term."`
	Show    ShowCmd          `cmd:"" help:"Print one Pokemon by id or name."`
}

// BrowseCmd opens the dashboard.
type BrowseCmd struct {
	Location string `arg:"" optional:"" help:"Start location, e.g. /?page=3 or /pokemon/25?fromPage=2."`
}

// ListCmd prints one list page.
type ListCmd struct {
	Page int `help:"Page number, starting at 1." default:"1"`
}

// SearchCmd prints the matches for a term.
type SearchCmd struct {
	Term string `arg:"" help:"Case-insensitive name fragment."`
}

// ShowCmd prints one record.
type ShowCmd struct {
	Ref string `arg:"" help:"Pokemon id or name."`
}

// loadConfig loads layered config from user and project paths, an optional
// extra file, env overrides and flags, then validates the result.
func loadConfig(g *Globals) (*config.Config, error) {
	paths := []string{
		os.ExpandEnv("$HOME/.config/dex/config.yaml"),
		".dex/config.yaml",
	}
	if g.Config != "" {
		if _, err := os.Stat(g.Config); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		paths = append(paths, g.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.BaseURL != "" {
		cfg.API.BaseURL = g.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the services one command runs against.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	cache   *querycache.Cache
	service *catalog.Service
}

// newApp wires config, logging, the API client, the cache and the catalog
// service. Extra cache options are applied last.
func newApp(g *Globals, cacheOpts ...querycache.Option) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	client := pokeapi.New(cfg.API.BaseURL,
		pokeapi.WithTimeout(cfg.API.Timeout),
		pokeapi.WithUserAgent(cfg.API.UserAgent),
		pokeapi.WithLogger(log.Logger),
	)
	opts := append([]querycache.Option{
		querycache.WithLogger(log.Logger),
		querycache.WithStaleWhileRevalidate(cfg.Cache.StaleWhileRevalidate),
	}, cacheOpts...)
	cache := querycache.New(opts...)
	service := catalog.NewService(client, cache, catalog.Settings{
		ListTTL:     cfg.Cache.ListTTL,
		DetailTTL:   cfg.Cache.DetailTTL,
		SearchTTL:   cfg.Cache.SearchTTL,
		SearchLimit: cfg.Search.Limit,
	})

	settings := service.Settings()
	log.Debug("dex starting",
		"version", version, "base_url", client.BaseURL(), "page_size", cfg.List.PageSize,
		"list_ttl", settings.ListTTL, "detail_ttl", settings.DetailTTL,
		"search_ttl", settings.SearchTTL, "search_limit", settings.SearchLimit)
	return &app{cfg: cfg, log: log, cache: cache, service: service}, nil
}

// Close flushes the cache counters to the log and closes it.
func (a *app) Close() {
	st := a.service.Stats()
	a.log.Debug("dex exiting",
		"entries", a.cache.Len(),
		"hits", st.Hits, "misses", st.Misses, "stale_serves", st.StaleServes,
		"fetches", st.Fetches, "joins", st.Joins, "evictions", st.Evictions)
	a.log.Close()
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the dashboard TUI.
func (b *BrowseCmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("browse: requires a terminal (TTY)")
	}
	loc, err := viewstate.ParseLocation(b.Location)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	bridge := dashboard.NewBridge()
	a, err := newApp(g, querycache.WithEventHandler(bridge.Publish))
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer a.Close()
	defer bridge.Close()

	m := dashboard.NewModel(
		dashboard.WithCatalog(a.service),
		dashboard.WithEvents(bridge.Events()),
		dashboard.WithLocation(loc),
		dashboard.WithPageSize(a.cfg.List.PageSize),
		dashboard.WithDebounce(a.cfg.Search.Debounce),
		dashboard.WithSweepInterval(a.cfg.Cache.SweepInterval),
		dashboard.WithPrefetch(a.cfg.List.PrefetchCards),
	)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	err = b.run(true, prog)
	if n := bridge.Dropped(); n > 0 {
		a.log.Debug("cache events dropped", "count", n)
	}
	return err
}

// run executes the tea program, enabling testable wiring.
func (b *BrowseCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("browse: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// pageLister is the list query used by ListCmd.
type pageLister interface {
	ListPage(ctx context.Context, offset, limit int) (catalog.ListPage, error)
}

// Run prints the requested page.
func (c *ListCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, os.Stdout, a.service, a.cfg.List.PageSize)
}

func (c *ListCmd) run(ctx context.Context, w io.Writer, src pageLister, pageSize int) error {
	if c.Page < 1 {
		return fmt.Errorf("list: %w: page %d", catalog.ErrInvalidPage, c.Page)
	}
	idx := c.Page - 1
	page, err := src.ListPage(ctx, viewstate.Offset(idx, pageSize), pageSize)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return report.ListPage(w, page, idx, pageSize)
}

// searcher is the search query used by SearchCmd.
type searcher interface {
	Search(ctx context.Context, term string) (catalog.ListPage, error)
}

// Run prints the matches.
func (c *SearchCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, os.Stdout, a.service)
}

func (c *SearchCmd) run(ctx context.Context, w io.Writer, src searcher) error {
	page, err := src.Search(ctx, c.Term)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return report.SearchResults(w, catalog.NormalizeTerm(c.Term), page)
}

// lookuper is the detail query used by ShowCmd.
type lookuper interface {
	Lookup(ctx context.Context, ref string) (catalog.Detail, error)
}

// Run prints the record.
func (c *ShowCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, os.Stdout, a.service)
}

func (c *ShowCmd) run(ctx context.Context, w io.Writer, src lookuper) error {
	d, err := src.Lookup(ctx, c.Ref)
	if isNotFound(err) {
		if werr := report.NotFound(w, c.Ref); werr != nil {
			return werr
		}
		return reportedError{fmt.Errorf("show %s: %w", c.Ref, err)}
	}
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return report.Detail(w, d)
}

// reportedError marks an error whose message was already written to stdout.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func isNotFound(err error) bool {
	return errors.Is(err, pokeapi.ErrNotFound) || errors.Is(err, catalog.ErrUnknownID)
}

// Exit codes.
const (
	exitSuccess  = 0
	exitFetch    = 1
	exitSetup    = 2
	exitNotFound = 3
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if isNotFound(err) {
		return exitNotFound
	}
	switch pokeapi.Classify(err) {
	case pokeapi.KindNetwork, pokeapi.KindMalformed, pokeapi.KindStatus, pokeapi.KindCanceled:
		return exitFetch
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dex"),
		kong.Description("Browse the PokeAPI catalog from the terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}
