package catalog

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/smileynet/dex/internal/pokeapi"
)

// ErrUnknownID is returned when an id cannot be derived or is not a valid
// Pokemon id.
var ErrUnknownID = errors.New("catalog: unknown id")

// DeriveID extracts the numeric id from a resource URL such as
// https://pokeapi.co/api/v2/pokemon/25/. The path is split on "/", one
// trailing empty segment is dropped, and the last remaining segment must be
// a positive base-10 integer.
func DeriveID(sourceURL string) (int, error) {
	path := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Path != "" {
		path = u.Path
	}

	segments := strings.Split(path, "/")
	if n := len(segments); n > 0 && segments[n-1] == "" {
		segments = segments[:n-1]
	}
	if len(segments) == 0 {
		return 0, ErrUnknownID
	}

	last := segments[len(segments)-1]
	if last == "" || strings.TrimLeft(last, "0123456789") != "" {
		return 0, ErrUnknownID
	}
	id, err := strconv.Atoi(last)
	if err != nil || id <= 0 {
		return 0, ErrUnknownID
	}
	return id, nil
}

// FilterByName returns the items whose name contains query, ignoring case,
// in their original order. An empty query matches everything; callers treat
// an empty query as "no search active" and skip filtering.
func FilterByName(items []ListItem, query string) []ListItem {
	fold := cases.Fold()
	q := fold.String(query)
	out := make([]ListItem, 0, len(items))
	for _, it := range items {
		if strings.Contains(fold.String(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

// NormalizeTerm trims and lower-cases a search term. Only normalized terms
// are used in cache keys.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// ToListPage normalizes a list response, deriving every item's id.
func ToListPage(resp pokeapi.ListResponse) ListPage {
	items := make([]ListItem, len(resp.Results))
	for i, r := range resp.Results {
		id, _ := DeriveID(r.URL)
		items[i] = ListItem{Name: r.Name, SourceURL: r.URL, ID: id}
	}
	return ListPage{TotalCount: resp.Count, Items: items}
}

// ToDetail normalizes a detail response.
func ToDetail(p pokeapi.Pokemon, fetchedAt time.Time) Detail {
	d := Detail{
		ID:             p.ID,
		Name:           p.Name,
		Height:         p.Height,
		Weight:         p.Weight,
		BaseExperience: p.BaseExperience,
		Types:          make([]TypeSlot, len(p.Types)),
		Stats:          make([]Stat, len(p.Stats)),
		Abilities:      make([]Ability, len(p.Abilities)),
		FetchedAt:      fetchedAt,
	}
	for i, t := range p.Types {
		d.Types[i] = TypeSlot{Slot: t.Slot, Name: t.Type.Name}
	}
	for i, s := range p.Stats {
		d.Stats[i] = Stat{Name: s.Stat.Name, BaseStat: s.BaseStat}
	}
	for i, a := range p.Abilities {
		d.Abilities[i] = Ability{Name: a.Ability.Name, IsHidden: a.IsHidden, Slot: a.Slot}
	}
	if p.Sprites.FrontDefault != nil {
		d.Sprite = *p.Sprites.FrontDefault
	}
	return d
}
