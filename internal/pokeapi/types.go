// Package pokeapi is a small HTTP client for the PokeAPI list and detail
// endpoints. It returns wire-shaped records; normalization into view
// records lives in package catalog.
package pokeapi

// NamedResource is a name/url reference to another API resource.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListResponse is the body of GET /pokemon?limit=&offset=.
type ListResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// TypeSlot is one entry of a Pokemon's types list.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// StatEntry is one base stat of a Pokemon.
type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// AbilityEntry is one ability of a Pokemon.
type AbilityEntry struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// Sprites holds sprite image URLs. Any of them may be null.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
	BackDefault  *string `json:"back_default"`
	FrontShiny   *string `json:"front_shiny"`
	BackShiny    *string `json:"back_shiny"`
}

// Pokemon is the body of GET /pokemon/<idOrName>, reduced to the fields dex uses.
type Pokemon struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Height         int            `json:"height"`
	Weight         int            `json:"weight"`
	BaseExperience int            `json:"base_experience"`
	Types          []TypeSlot     `json:"types"`
	Stats          []StatEntry    `json:"stats"`
	Abilities      []AbilityEntry `json:"abilities"`
	Sprites        Sprites        `json:"sprites"`
}
