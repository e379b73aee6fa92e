package catalog

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxBaseStat is the ceiling used to scale stat bars.
const MaxBaseStat = 255

// spriteURLFormat is the raw sprite path used for list cards, which only
// know the id.
const spriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// DisplayName title-cases an API slug: "mr-mime" -> "Mr-Mime".
func DisplayName(name string) string {
	return cases.Title(language.English).String(name)
}

// FormatID renders an id as "#0025". Unknown ids render as "#????".
func FormatID(id int) string {
	if id <= 0 {
		return "#????"
	}
	return fmt.Sprintf("#%04d", id)
}

// SpriteURL returns the front sprite URL for an id.
func SpriteURL(id int) string {
	return fmt.Sprintf(spriteURLFormat, id)
}

// StatRatio scales a base stat to [0, 1] against MaxBaseStat.
func StatRatio(base int) float64 {
	r := float64(base) / MaxBaseStat
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// PrimaryType picks the type used for colouring: the first type, except
// that a leading "normal" with further types yields the last type.
// It returns "" when there are no types.
func PrimaryType(types []TypeSlot) string {
	if len(types) == 0 {
		return ""
	}
	if types[0].Name == "normal" && len(types) > 1 {
		return types[len(types)-1].Name
	}
	return types[0].Name
}

// Colors is the palette for one type, as hex RGB strings.
type Colors struct {
	Badge     string // badge background
	BadgeText string // badge foreground
	Border    string // card / detail border
	Accent    string // stat bar fill
}

var typeColors = map[string]Colors{
	"normal":   {Badge: "#f3f4f6", BadgeText: "#1f2937", Border: "#d1d5db", Accent: "#6b7280"},
	"fire":     {Badge: "#fee2e2", BadgeText: "#991b1b", Border: "#f87171", Accent: "#ef4444"},
	"water":    {Badge: "#dbeafe", BadgeText: "#1e40af", Border: "#60a5fa", Accent: "#3b82f6"},
	"electric": {Badge: "#fef9c3", BadgeText: "#854d0e", Border: "#facc15", Accent: "#eab308"},
	"grass":    {Badge: "#dcfce7", BadgeText: "#166534", Border: "#4ade80", Accent: "#22c55e"},
	"ice":      {Badge: "#cffafe", BadgeText: "#155e75", Border: "#22d3ee", Accent: "#06b6d4"},
	"fighting": {Badge: "#fecaca", BadgeText: "#7f1d1d", Border: "#ef4444", Accent: "#ef4444"},
	"poison":   {Badge: "#f3e8ff", BadgeText: "#6b21a8", Border: "#c084fc", Accent: "#a855f7"},
	"ground":   {Badge: "#fef08a", BadgeText: "#713f12", Border: "#eab308", Accent: "#eab308"},
	"flying":   {Badge: "#e0e7ff", BadgeText: "#3730a3", Border: "#818cf8", Accent: "#6366f1"},
	"psychic":  {Badge: "#fce7f3", BadgeText: "#9d174d", Border: "#f472b6", Accent: "#ec4899"},
	"bug":      {Badge: "#ecfccb", BadgeText: "#3f6212", Border: "#a3e635", Accent: "#84cc16"},
	"rock":     {Badge: "#fde047", BadgeText: "#713f12", Border: "#ca8a04", Accent: "#eab308"},
	"ghost":    {Badge: "#e9d5ff", BadgeText: "#581c87", Border: "#a855f7", Accent: "#a855f7"},
	"dragon":   {Badge: "#c7d2fe", BadgeText: "#312e81", Border: "#6366f1", Accent: "#6366f1"},
	"dark":     {Badge: "#1f2937", BadgeText: "#ffffff", Border: "#374151", Accent: "#6b7280"},
	"steel":    {Badge: "#d1d5db", BadgeText: "#1f2937", Border: "#9ca3af", Accent: "#6b7280"},
	"fairy":    {Badge: "#fbcfe8", BadgeText: "#831843", Border: "#ec4899", Accent: "#ec4899"},
}

// TypeColors returns the palette for a type name, falling back to the
// "normal" palette for unknown or empty names.
func TypeColors(name string) Colors {
	if c, ok := typeColors[name]; ok {
		return c
	}
	return typeColors["normal"]
}

// KnownType reports whether name has its own palette.
func KnownType(name string) bool {
	_, ok := typeColors[name]
	return ok
}
