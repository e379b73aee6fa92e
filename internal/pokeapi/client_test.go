package pokeapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smileynet/dex/internal/pokeapi"
)

const bulbasaurJSON = `{
  "id": 1,
  "name": "bulbasaur",
  "height": 7,
  "weight": 69,
  "base_experience": 64,
  "types": [
    {"slot": 1, "type": {"name": "grass", "url": "https://pokeapi.co/api/v2/type/12/"}},
    {"slot": 2, "type": {"name": "poison", "url": "https://pokeapi.co/api/v2/type/4/"}}
  ],
  "stats": [
    {"base_stat": 45, "effort": 0, "stat": {"name": "hp", "url": "https://pokeapi.co/api/v2/stat/1/"}}
  ],
  "abilities": [
    {"ability": {"name": "overgrow", "url": "https://pokeapi.co/api/v2/ability/65/"}, "is_hidden": false, "slot": 1},
    {"ability": {"name": "chlorophyll", "url": "https://pokeapi.co/api/v2/ability/34/"}, "is_hidden": true, "slot": 3}
  ],
  "sprites": {"front_default": "https://example.test/1.png", "back_default": null, "front_shiny": null, "back_shiny": null}
}`

func TestClient_List_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/pokemon" {
			t.Errorf("expected /pokemon, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q, want 20", got)
		}
		if got := r.URL.Query().Get("offset"); got != "40" {
			t.Errorf("offset = %q, want 40", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 1302, "next": "n", "previous": null, "results": [
			{"name": "bulbasaur", "url": "https://pokeapi.co/api/v2/pokemon/1/"}
		]}`))
	}))
	defer server.Close()

	c := pokeapi.New(server.URL)
	got, err := c.List(context.Background(), 40, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got.Count != 1302 {
		t.Errorf("Count = %d, want 1302", got.Count)
	}
	if len(got.Results) != 1 || got.Results[0].Name != "bulbasaur" {
		t.Errorf("Results = %+v, want one bulbasaur", got.Results)
	}
	if got.Previous != nil {
		t.Errorf("Previous = %v, want nil", *got.Previous)
	}
}

func TestClient_Pokemon_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/bulbasaur" {
			t.Errorf("expected /pokemon/bulbasaur, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(bulbasaurJSON))
	}))
	defer server.Close()

	c := pokeapi.New(server.URL + "/")
	p, err := c.Pokemon(context.Background(), "  Bulbasaur ")
	if err != nil {
		t.Fatalf("Pokemon failed: %v", err)
	}
	if p.ID != 1 || p.Name != "bulbasaur" {
		t.Errorf("got %d/%q, want 1/bulbasaur", p.ID, p.Name)
	}
	if len(p.Types) != 2 || p.Types[1].Type.Name != "poison" {
		t.Errorf("Types = %+v", p.Types)
	}
	if !p.Abilities[1].IsHidden {
		t.Error("chlorophyll should be hidden")
	}
	if p.Sprites.FrontDefault == nil || *p.Sprites.FrontDefault != "https://example.test/1.png" {
		t.Errorf("FrontDefault = %v", p.Sprites.FrontDefault)
	}
	if p.Sprites.BackDefault != nil {
		t.Error("BackDefault should be nil")
	}
}

func TestClient_UserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(bulbasaurJSON))
	}))
	defer server.Close()

	c := pokeapi.New(server.URL, pokeapi.WithUserAgent("dex-test/1.0"))
	if _, err := c.Pokemon(context.Background(), "1"); err != nil {
		t.Fatalf("Pokemon failed: %v", err)
	}
	if gotUA != "dex-test/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "dex-test/1.0")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		kind     pokeapi.Kind
	}{
		{name: "not found", status: http.StatusNotFound, body: "Not Found", wantKind: pokeapi.ErrNotFound, kind: pokeapi.KindNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantKind: pokeapi.ErrStatus, kind: pokeapi.KindStatus},
		{name: "bad json", status: http.StatusOK, body: "{not json", wantKind: pokeapi.ErrMalformed, kind: pokeapi.KindMalformed},
		{name: "missing identity", status: http.StatusOK, body: `{"height": 3}`, wantKind: pokeapi.ErrMalformed, kind: pokeapi.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := pokeapi.New(server.URL)
			_, err := c.Pokemon(context.Background(), "9999")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantKind)
			}
			if got := pokeapi.Classify(err); got != tt.kind {
				t.Errorf("Classify = %q, want %q", got, tt.kind)
			}
			var apiErr *pokeapi.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *pokeapi.Error, got %T", err)
			}
			if apiErr.Op != "pokemon" {
				t.Errorf("Op = %q, want pokemon", apiErr.Op)
			}
		})
	}
}

func TestClient_NotFoundIsDistinctFromOther(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := pokeapi.New(server.URL).Pokemon(context.Background(), "9999")
	if !errors.Is(err, pokeapi.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if errors.Is(err, pokeapi.ErrStatus) || errors.Is(err, pokeapi.ErrNetwork) {
		t.Errorf("not-found error must not match other kinds: %v", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := pokeapi.New(url).List(context.Background(), 0, 20)
	if !errors.Is(err, pokeapi.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bulbasaurJSON))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pokeapi.New(server.URL).Pokemon(ctx, "1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := pokeapi.Classify(err); got != pokeapi.KindCanceled {
		t.Errorf("Classify = %q, want %q", got, pokeapi.KindCanceled)
	}
}

func TestClient_EmptyReference(t *testing.T) {
	_, err := pokeapi.New("http://unused.invalid").Pokemon(context.Background(), "   ")
	if !errors.Is(err, pokeapi.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := pokeapi.Classify(nil); got != pokeapi.KindNone {
		t.Errorf("Classify(nil) = %q, want empty", got)
	}
	if got := pokeapi.Classify(errors.New("x")); got != pokeapi.KindOther {
		t.Errorf("Classify(other) = %q, want %q", got, pokeapi.KindOther)
	}
}
