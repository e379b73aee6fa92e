package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/pokeapi"
)

// errExitCalled is a sentinel used to catch kong's os.Exit calls in tests.
var errExitCalled = errors.New("exit called")

func TestFeature_CLIParsing(t *testing.T) {
	t.Run("version flag prints version commit and date", func(t *testing.T) {
		// Given: a CLI parser with version, commit, and date fields
		var cli CLI
		var buf bytes.Buffer
		versionStr := "v1.0.0 abc1234 2026-01-01T00:00:00Z"
		k, err := kong.New(&cli,
			kong.Vars{"version": versionStr},
			kong.Writers(&buf, &buf),
			kong.Exit(func(int) { panic(errExitCalled) }),
		)
		if err != nil {
			t.Fatal(err)
		}

		// When: --version flag is passed
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic from --version flag")
			}
			err, ok := r.(error)
			if !ok || !errors.Is(err, errExitCalled) {
				panic(r)
			}

			// Then: version, commit, and date are all present in output
			output := buf.String()
			for _, want := range []string{"v1.0.0", "abc1234", "2026-01-01T00:00:00Z"} {
				if !strings.Contains(output, want) {
					t.Errorf("version output = %q, want to contain %q", output, want)
				}
			}
		}()

		k.Parse([]string{"--version"}) //nolint:errcheck // --version triggers panic via Exit hook
	})

	t.Run("no args shows usage and errors", func(t *testing.T) {
		var cli CLI
		k, err := kong.New(&cli, kong.Vars{"version": "test"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err = k.Parse([]string{}); err == nil {
			t.Fatal("expected error when no command provided")
		}
	})

	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli CLI)
	}{
		{
			name:    "browse without location",
			args:    []string{"browse"},
			command: "browse",
			check: func(t *testing.T, cli CLI) {
				if cli.Browse.Location != "" {
					t.Errorf("location = %q", cli.Browse.Location)
				}
			},
		},
		{
			name:    "browse with location",
			args:    []string{"browse", "/pokemon/25?fromPage=2"},
			command: "browse <location>",
			check: func(t *testing.T, cli CLI) {
				if cli.Browse.Location != "/pokemon/25?fromPage=2" {
					t.Errorf("location = %q", cli.Browse.Location)
				}
			},
		},
		{
			name:    "list defaults to page 1",
			args:    []string{"list"},
			command: "list",
			check: func(t *testing.T, cli CLI) {
				if cli.List.Page != 1 {
					t.Errorf("page = %d, want 1", cli.List.Page)
				}
			},
		},
		{
			name:    "list with page and global flags",
			args:    []string{"--base-url", "http://localhost:9999", "list", "--page", "3"},
			command: "list",
			check: func(t *testing.T, cli CLI) {
				if cli.List.Page != 3 || cli.BaseURL != "http://localhost:9999" {
					t.Errorf("page = %d base url = %q", cli.List.Page, cli.BaseURL)
				}
			},
		},
		{
			name:    "search term",
			args:    []string{"search", "saur"},
			command: "search <term>",
			check: func(t *testing.T, cli CLI) {
				if cli.Search.Term != "saur" {
					t.Errorf("term = %q", cli.Search.Term)
				}
			},
		},
		{
			name:    "show ref",
			args:    []string{"show", "pikachu"},
			command: "show <ref>",
			check: func(t *testing.T, cli CLI) {
				if cli.Show.Ref != "pikachu" {
					t.Errorf("ref = %q", cli.Show.Ref)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cli CLI
			k, err := kong.New(&cli, kong.Vars{"version": "test"})
			if err != nil {
				t.Fatal(err)
			}
			kctx, err := k.Parse(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if kctx.Command() != tt.command {
				t.Errorf("got command %q, want %q", kctx.Command(), tt.command)
			}
			tt.check(t, cli)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("layers user, project, extra file, env and flags", func(t *testing.T) {
		// Given: an isolated home and working directory
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())
		writeFile(t, filepath.Join(home, ".config", "dex", "config.yaml"), "list:\n  page_size: 30\nsearch:\n  limit: 50\n")
		writeFile(t, filepath.Join(".dex", "config.yaml"), "list:\n  page_size: 40\n")
		extra := filepath.Join(t.TempDir(), "extra.yaml")
		writeFile(t, extra, "cache:\n  list_ttl: 2m\n")
		t.Setenv("DEX_SEARCH_LIMIT", "75")

		// When: config is loaded with a base URL flag
		cfg, err := loadConfig(&Globals{Config: extra, BaseURL: "http://localhost:8080/api/v2"})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}

		// Then: each layer overrides the previous one
		if cfg.List.PageSize != 40 {
			t.Errorf("page size = %d, want 40 from the project file", cfg.List.PageSize)
		}
		if cfg.Search.Limit != 75 {
			t.Errorf("search limit = %d, want 75 from env", cfg.Search.Limit)
		}
		if cfg.Cache.ListTTL.String() != "2m0s" {
			t.Errorf("list ttl = %v, want 2m from the extra file", cfg.Cache.ListTTL)
		}
		if cfg.API.BaseURL != "http://localhost:8080/api/v2" {
			t.Errorf("base url = %q", cfg.API.BaseURL)
		}
	})

	t.Run("missing extra file is an error", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())
		if _, err := loadConfig(&Globals{Config: "nope.yaml"}); err == nil {
			t.Fatal("expected error for missing --config file")
		}
	})

	t.Run("invalid base url fails validation", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())
		_, err := loadConfig(&Globals{BaseURL: "not a url"})
		if err == nil || !strings.Contains(err.Error(), "base_url") {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if exitCode(err) != exitSetup {
			t.Errorf("exitCode = %d, want %d", exitCode(err), exitSetup)
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"not found", fmt.Errorf("show: %w", &pokeapi.Error{Op: "pokemon", Kind: pokeapi.ErrNotFound, Status: 404}), exitNotFound},
		{"unknown id", fmt.Errorf("show: %w", catalog.ErrUnknownID), exitNotFound},
		{"network", &pokeapi.Error{Op: "list", Kind: pokeapi.ErrNetwork}, exitFetch},
		{"malformed", &pokeapi.Error{Op: "list", Kind: pokeapi.ErrMalformed}, exitFetch},
		{"server error", &pokeapi.Error{Op: "list", Kind: pokeapi.ErrStatus, Status: 500}, exitFetch},
		{"interrupted", fmt.Errorf("list: %w", context.Canceled), exitFetch},
		{"bad page", fmt.Errorf("list: %w", catalog.ErrInvalidPage), exitSetup},
		{"empty search", fmt.Errorf("search: %w", catalog.ErrEmptyQuery), exitSetup},
		{"reported not found", reportedError{&pokeapi.Error{Op: "pokemon", Kind: pokeapi.ErrNotFound}}, exitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFeature_BrowseCommand(t *testing.T) {
	t.Run("run returns error when not a TTY", func(t *testing.T) {
		// Given a BrowseCmd
		cmd := &BrowseCmd{}

		// When run is called with isTTY=false
		err := cmd.run(false, nil)

		// Then an error mentioning "terminal" is returned
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "terminal") {
			t.Errorf("error = %q, want to contain 'terminal'", err)
		}
	})

	t.Run("run executes tea program when TTY", func(t *testing.T) {
		cmd := &BrowseCmd{}
		mock := &mockTeaRunner{}

		if err := cmd.run(true, mock); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !mock.ran {
			t.Error("tea program was not run")
		}
	})

	t.Run("run returns tea program error", func(t *testing.T) {
		cmd := &BrowseCmd{}
		mock := &mockTeaRunner{err: fmt.Errorf("tea: terminal error")}

		err := cmd.run(true, mock)
		if err == nil || !strings.Contains(err.Error(), "tea: terminal error") {
			t.Errorf("error = %v, want tea error", err)
		}
	})
}

// mockTeaRunner stubs tea program execution for BrowseCmd testing.
type mockTeaRunner struct {
	ran bool
	err error
}

func (m *mockTeaRunner) Run() (tea.Model, error) {
	m.ran = true
	return nil, m.err
}

// Compile-time check: mockTeaRunner satisfies teaRunner.
var _ teaRunner = (*mockTeaRunner)(nil)

// fakeCatalog answers the non-interactive queries from memory.
type fakeCatalog struct {
	page      catalog.ListPage
	detail    catalog.Detail
	err       error
	gotOffset int
	gotLimit  int
	gotTerm   string
}

func (f *fakeCatalog) ListPage(_ context.Context, offset, limit int) (catalog.ListPage, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.page, f.err
}

func (f *fakeCatalog) Search(_ context.Context, term string) (catalog.ListPage, error) {
	f.gotTerm = term
	return f.page, f.err
}

func (f *fakeCatalog) Lookup(_ context.Context, ref string) (catalog.Detail, error) {
	f.gotTerm = ref
	return f.detail, f.err
}

func TestListCmd_Run(t *testing.T) {
	t.Run("prints the requested page", func(t *testing.T) {
		fake := &fakeCatalog{page: catalog.ListPage{
			TotalCount: 100,
			Items:      []catalog.ListItem{{Name: "mon-41", ID: 41}},
		}}
		var buf bytes.Buffer

		err := (&ListCmd{Page: 3}).run(t.Context(), &buf, fake, 20)
		if err != nil {
			t.Fatal(err)
		}
		if fake.gotOffset != 40 || fake.gotLimit != 20 {
			t.Errorf("offset %d limit %d; want 40, 20", fake.gotOffset, fake.gotLimit)
		}
		if !strings.Contains(buf.String(), "Page 3 of 5") || !strings.Contains(buf.String(), "#0041") {
			t.Errorf("output:\n%s", buf.String())
		}
	})

	t.Run("rejects page zero", func(t *testing.T) {
		err := (&ListCmd{Page: 0}).run(t.Context(), io.Discard, &fakeCatalog{}, 20)
		if !errors.Is(err, catalog.ErrInvalidPage) {
			t.Errorf("error = %v, want ErrInvalidPage", err)
		}
	})

	t.Run("fetch failure maps to exit 1", func(t *testing.T) {
		fake := &fakeCatalog{err: &pokeapi.Error{Op: "list", Kind: pokeapi.ErrNetwork}}
		err := (&ListCmd{Page: 1}).run(t.Context(), io.Discard, fake, 20)
		if exitCode(err) != exitFetch {
			t.Errorf("exitCode = %d, want %d (err %v)", exitCode(err), exitFetch, err)
		}
	})
}

func TestSearchCmd_Run(t *testing.T) {
	fake := &fakeCatalog{page: catalog.ListPage{
		TotalCount: 1,
		Items:      []catalog.ListItem{{Name: "bulbasaur", ID: 1}},
	}}
	var buf bytes.Buffer

	if err := (&SearchCmd{Term: "  BULBA "}).run(t.Context(), &buf, fake); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `Found 1 Pokemon matching "bulba"`) {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestShowCmd_Run(t *testing.T) {
	t.Run("prints the record", func(t *testing.T) {
		fake := &fakeCatalog{detail: catalog.Detail{ID: 25, Name: "pikachu"}}
		var buf bytes.Buffer
		if err := (&ShowCmd{Ref: "pikachu"}).run(t.Context(), &buf, fake); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Pikachu #0025") {
			t.Errorf("output:\n%s", buf.String())
		}
	})

	t.Run("not found is reported and exits 3", func(t *testing.T) {
		fake := &fakeCatalog{err: &pokeapi.Error{Op: "pokemon", Kind: pokeapi.ErrNotFound, Status: 404}}
		var buf bytes.Buffer

		err := (&ShowCmd{Ref: "missingno"}).run(t.Context(), &buf, fake)

		var reported reportedError
		if !errors.As(err, &reported) {
			t.Fatalf("error = %v, want reportedError", err)
		}
		if exitCode(err) != exitNotFound {
			t.Errorf("exitCode = %d, want %d", exitCode(err), exitNotFound)
		}
		if !strings.Contains(buf.String(), "Pokemon not found") {
			t.Errorf("output = %q", buf.String())
		}
	})
}

// TestFeature_EndToEnd drives the real client, cache and service against a
// fake API server.
func TestFeature_EndToEnd(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/pokemon":
			fmt.Fprintf(w, `{"count":2,"next":null,"previous":null,"results":[
				{"name":"bulbasaur","url":"%[1]s/pokemon/1/"},
				{"name":"ivysaur","url":"%[1]s/pokemon/2/"}]}`, "http://"+r.Host)
		case "/pokemon/2":
			fmt.Fprint(w, `{"id":2,"name":"ivysaur","height":10,"weight":130,"base_experience":142,
				"types":[{"slot":1,"type":{"name":"grass","url":""}}],
				"stats":[{"base_stat":60,"effort":0,"stat":{"name":"hp","url":""}}],
				"abilities":[{"ability":{"name":"overgrow","url":""},"is_hidden":false,"slot":1}],
				"sprites":{"front_default":null}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	a, err := newApp(&Globals{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	var buf bytes.Buffer
	if err := (&ListCmd{Page: 1}).run(t.Context(), &buf, a.service, a.cfg.List.PageSize); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Ivysaur") {
		t.Errorf("list output:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&ShowCmd{Ref: "2"}).run(t.Context(), &buf, a.service); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Ivysaur #0002") || !strings.Contains(buf.String(), "No image available") {
		t.Errorf("show output:\n%s", buf.String())
	}

	err = (&ShowCmd{Ref: "9999"}).run(t.Context(), &bytes.Buffer{}, a.service)
	if exitCode(err) != exitNotFound {
		t.Errorf("exitCode = %d, want %d (err %v)", exitCode(err), exitNotFound, err)
	}
	if n := requests.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}
