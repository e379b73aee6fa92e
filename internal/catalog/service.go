package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smileynet/dex/internal/pokeapi"
	"github.com/smileynet/dex/internal/querycache"
)

var (
	// ErrEmptyQuery is returned by Search for a blank term. Callers should
	// show the paginated list instead.
	ErrEmptyQuery = errors.New("catalog: empty search term")

	// ErrInvalidPage is returned by ListPage for a negative offset or a
	// non-positive limit.
	ErrInvalidPage = errors.New("catalog: invalid page")
)

// Tag types.
const (
	TagPokemon     = "Pokemon"
	TagPokemonList = "PokemonList"
)

// Source is the remote catalog. *pokeapi.Client implements it.
type Source interface {
	List(ctx context.Context, offset, limit int) (pokeapi.ListResponse, error)
	Pokemon(ctx context.Context, idOrName string) (pokeapi.Pokemon, error)
}

// Settings are the per-query cache lifetimes and search scope.
type Settings struct {
	ListTTL     time.Duration
	DetailTTL   time.Duration
	SearchTTL   time.Duration
	SearchLimit int // records fetched and filtered per search
}

// DefaultSettings returns the default lifetimes: listings change more often
// than individual records.
func DefaultSettings() Settings {
	return Settings{
		ListTTL:     5 * time.Minute,
		DetailTTL:   10 * time.Minute,
		SearchTTL:   time.Minute,
		SearchLimit: 100,
	}
}

// Service runs catalog queries through a shared query cache.
type Service struct {
	src      Source
	cache    *querycache.Cache
	settings Settings
	now      func() time.Time
}

// NewService wires a source to a cache. Zero-valued settings fields take
// their defaults.
func NewService(src Source, cache *querycache.Cache, settings Settings) *Service {
	def := DefaultSettings()
	if settings.ListTTL <= 0 {
		settings.ListTTL = def.ListTTL
	}
	if settings.DetailTTL <= 0 {
		settings.DetailTTL = def.DetailTTL
	}
	if settings.SearchTTL <= 0 {
		settings.SearchTTL = def.SearchTTL
	}
	if settings.SearchLimit <= 0 {
		settings.SearchLimit = def.SearchLimit
	}
	return &Service{src: src, cache: cache, settings: settings, now: time.Now}
}

// Settings returns the effective settings.
func (s *Service) Settings() Settings {
	return s.settings
}

// --- Keys and tags ---

// ListKey is the cache key of a list page.
func ListKey(offset, limit int) string {
	return fmt.Sprintf("list?offset=%d&limit=%d", offset, limit)
}

// SearchKey is the cache key of a search. term must already be normalized.
func (s *Service) SearchKey(term string) string {
	return fmt.Sprintf("search?q=%s&limit=%d", url.QueryEscape(term), s.settings.SearchLimit)
}

// DetailKey is the cache key of a detail record.
func DetailKey(id int) string {
	return "pokemon/" + strconv.Itoa(id)
}

func nameKey(name string) string {
	return "pokemon/name/" + url.PathEscape(name)
}

// PokemonTag is the entry tag for one Pokemon id.
func PokemonTag(id int) querycache.Tag {
	return querycache.Tag{Type: TagPokemon, ID: strconv.Itoa(id)}
}

// ListTag is the page tag of the list page at offset.
func ListTag(offset int) querycache.Tag {
	return querycache.Tag{Type: TagPokemonList, ID: "list-" + strconv.Itoa(offset)}
}

// SearchTag is the page tag of a search result.
func SearchTag(term string) querycache.Tag {
	return querycache.Tag{Type: TagPokemonList, ID: "search-" + term}
}

// allListsTag is carried by every list and search page.
var allListsTag = querycache.Tag{Type: TagPokemonList}

func itemTags(items []ListItem) []querycache.Tag {
	tags := make([]querycache.Tag, 0, len(items)+2)
	for _, it := range items {
		if it.KnownID() {
			tags = append(tags, PokemonTag(it.ID))
		}
	}
	return tags
}

// --- Queries ---

// ListPage returns the page of limit records starting at offset.
func (s *Service) ListPage(ctx context.Context, offset, limit int) (ListPage, error) {
	if offset < 0 || limit <= 0 {
		return ListPage{}, fmt.Errorf("%w: offset %d, limit %d", ErrInvalidPage, offset, limit)
	}
	return querycache.Fetch(ctx, s.cache, querycache.Query[ListPage]{
		Key: ListKey(offset, limit),
		TTL: s.settings.ListTTL,
		Fetch: func(ctx context.Context) (ListPage, error) {
			resp, err := s.src.List(ctx, offset, limit)
			if err != nil {
				return ListPage{}, err
			}
			return ToListPage(resp), nil
		},
		Tags: func(p ListPage, err error) []querycache.Tag {
			var tags []querycache.Tag
			if err == nil {
				tags = itemTags(p.Items)
			}
			return append(tags, ListTag(offset), allListsTag)
		},
	})
}

// Search returns the records among the first SearchLimit whose name
// contains term. TotalCount is the number of matches.
func (s *Service) Search(ctx context.Context, term string) (ListPage, error) {
	norm := NormalizeTerm(term)
	if norm == "" {
		return ListPage{}, ErrEmptyQuery
	}
	limit := s.settings.SearchLimit
	return querycache.Fetch(ctx, s.cache, querycache.Query[ListPage]{
		Key: s.SearchKey(norm),
		TTL: s.settings.SearchTTL,
		Fetch: func(ctx context.Context) (ListPage, error) {
			resp, err := s.src.List(ctx, 0, limit)
			if err != nil {
				return ListPage{}, err
			}
			matches := FilterByName(ToListPage(resp).Items, norm)
			return ListPage{TotalCount: len(matches), Items: matches}, nil
		},
		Tags: func(p ListPage, err error) []querycache.Tag {
			var tags []querycache.Tag
			if err == nil {
				tags = itemTags(p.Items)
			}
			return append(tags, SearchTag(norm), allListsTag)
		},
	})
}

// Detail returns the record for id. Non-positive ids fail with
// ErrUnknownID without a network call.
func (s *Service) Detail(ctx context.Context, id int) (Detail, error) {
	if id <= 0 {
		return Detail{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return querycache.Fetch(ctx, s.cache, querycache.Query[Detail]{
		Key: DetailKey(id),
		TTL: s.settings.DetailTTL,
		Fetch: func(ctx context.Context) (Detail, error) {
			p, err := s.src.Pokemon(ctx, strconv.Itoa(id))
			if err != nil {
				return Detail{}, err
			}
			return ToDetail(p, s.now()), nil
		},
		Tags: func(Detail, error) []querycache.Tag {
			return []querycache.Tag{PokemonTag(id)}
		},
	})
}

// Lookup resolves a numeric id or a name. Numeric input goes through Detail
// so it shares cache entries with the views.
func (s *Service) Lookup(ctx context.Context, ref string) (Detail, error) {
	ref = NormalizeTerm(ref)
	if ref == "" {
		return Detail{}, ErrEmptyQuery
	}
	if strings.TrimLeft(ref, "0123456789") == "" {
		id, err := strconv.Atoi(ref)
		if err != nil {
			return Detail{}, fmt.Errorf("%w: %s", ErrUnknownID, ref)
		}
		return s.Detail(ctx, id)
	}
	return querycache.Fetch(ctx, s.cache, querycache.Query[Detail]{
		Key: nameKey(ref),
		TTL: s.settings.DetailTTL,
		Fetch: func(ctx context.Context) (Detail, error) {
			p, err := s.src.Pokemon(ctx, ref)
			if err != nil {
				return Detail{}, err
			}
			return ToDetail(p, s.now()), nil
		},
		Tags: func(d Detail, err error) []querycache.Tag {
			if err != nil || d.ID <= 0 {
				return nil
			}
			return []querycache.Tag{PokemonTag(d.ID)}
		},
	})
}

// PeekDetail returns the cached record for id without fetching.
func (s *Service) PeekDetail(id int) (Detail, bool) {
	r := querycache.Peek[Detail](s.cache, DetailKey(id))
	if r.Data.ID == 0 {
		return Detail{}, false
	}
	return r.Data, true
}

// --- Cache control ---

// Hold records the keys an active view references.
func (s *Service) Hold(owner string, keys ...string) {
	s.cache.Hold(owner, keys...)
}

// InvalidatePokemon marks every entry mentioning id as stale.
func (s *Service) InvalidatePokemon(id int) int {
	return s.cache.Invalidate(PokemonTag(id))
}

// InvalidateLists marks every list and search page as stale.
func (s *Service) InvalidateLists() int {
	return s.cache.Invalidate(allListsTag)
}

// Refresh marks one key stale.
func (s *Service) Refresh(key string) bool {
	return s.cache.Refresh(key)
}

// Sweep evicts unreferenced expired entries.
func (s *Service) Sweep() int {
	return s.cache.Sweep()
}

// Stats returns the cache counters.
func (s *Service) Stats() querycache.Stats {
	return s.cache.Stats()
}
