// Package catalog turns PokeAPI records into view records and defines the
// cached list, search and detail queries the views consume.
package catalog

import "time"

// ListItem is one row of a list page. ID is derived from SourceURL and is
// zero when it could not be derived.
type ListItem struct {
	Name      string
	SourceURL string
	ID        int
}

// KnownID reports whether the item's id was derived successfully.
// Items without a known id must not be used to build cache keys.
func (it ListItem) KnownID() bool {
	return it.ID > 0
}

// ListPage is one page of list results, or the matches of a search.
type ListPage struct {
	TotalCount int
	Items      []ListItem
}

// TypeSlot is one of a Pokemon's types.
type TypeSlot struct {
	Slot int
	Name string
}

// Stat is one base stat.
type Stat struct {
	Name     string
	BaseStat int
}

// Ability is one ability; hidden abilities are flagged.
type Ability struct {
	Name     string
	IsHidden bool
	Slot     int
}

// Detail is a full Pokemon record. It is immutable once fetched.
type Detail struct {
	ID             int
	Name           string
	Height         int // decimetres
	Weight         int // hectograms
	BaseExperience int
	Types          []TypeSlot
	Stats          []Stat
	Abilities      []Ability
	Sprite         string // empty when the API has no sprite
	FetchedAt      time.Time
}

// HasSprite reports whether the record has a sprite URL.
func (d Detail) HasSprite() bool {
	return d.Sprite != ""
}

// HeightMeters converts the API height (decimetres) to metres.
func (d Detail) HeightMeters() float64 {
	return float64(d.Height) / 10
}

// WeightKilograms converts the API weight (hectograms) to kilograms.
func (d Detail) WeightKilograms() float64 {
	return float64(d.Weight) / 10
}

// PrimaryType returns the type used to colour this record.
func (d Detail) PrimaryType() string {
	return PrimaryType(d.Types)
}
