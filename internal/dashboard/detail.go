package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/viewstate"
)

// statLabels maps API stat names to short labels.
var statLabels = map[string]string{
	"hp":              "HP",
	"attack":          "Attack",
	"defense":         "Defense",
	"special-attack":  "Sp. Atk",
	"special-defense": "Sp. Def",
	"speed":           "Speed",
}

const statLabelWidth = 8

// detailState tracks the record shown on the detail screen.
type detailState struct {
	id         int
	loc        viewstate.Location
	detail     catalog.Detail
	loading    bool
	loaded     bool
	refreshing bool
	notFound   bool
}

func newDetailState(id int, loc viewstate.Location) detailState {
	return detailState{id: id, loc: loc, loading: true}
}

// apply stores a successful result. Results for another id are ignored.
func (ds detailState) apply(id int, d catalog.Detail) detailState {
	if id != ds.id {
		return ds
	}
	ds.detail = d
	ds.loading = false
	ds.loaded = true
	ds.refreshing = false
	ds.notFound = false
	return ds
}

// View renders the loading and not-found states. A loaded record is
// rendered through the Model's viewport.
func (ds detailState) View(width, height int, spinnerView string) string {
	switch {
	case ds.notFound:
		return notFoundView()
	case ds.loading:
		return fmt.Sprintf("%s Loading %s...", spinnerView, catalog.FormatID(ds.id))
	}
	return ""
}

func notFoundView() string {
	return titleText.Render("Pokemon not found") + "\n\n" +
		"The Pokemon you're looking for doesn't exist.\n\n" +
		mutedText.Render("Press b to go back to the list")
}

func failureView(err error) string {
	return errorText.Render("Something went wrong") + "\n\n" +
		err.Error() + "\n\n" +
		mutedText.Render("Press r to reload")
}

// renderDetail lays out a record for a pane of the given width.
func renderDetail(d catalog.Detail, width int) string {
	colors := catalog.TypeColors(d.PrimaryType())
	accent := lipgloss.Color(colors.Accent)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(accent).
		Render(catalog.DisplayName(d.Name)))
	b.WriteString(" " + mutedText.Render(catalog.FormatID(d.ID)))
	b.WriteString("\n")

	badges := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		badges = append(badges, TypeBadge(t.Name))
	}
	b.WriteString(strings.Join(badges, " "))
	b.WriteString("\n\n")

	if d.HasSprite() {
		b.WriteString(mutedText.Render("Sprite: ") + d.Sprite)
	} else {
		b.WriteString(mutedText.Render("No image available"))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %.1f m   %s %.1f kg",
		sectionText.Render("Height"), d.HeightMeters(),
		sectionText.Render("Weight"), d.WeightKilograms())
	if d.BaseExperience > 0 {
		fmt.Fprintf(&b, "   %s %s", sectionText.Render("Base XP"), humanize.Comma(int64(d.BaseExperience)))
	}
	b.WriteString("\n\n")

	if len(d.Stats) > 0 {
		b.WriteString(sectionText.Render("Base Stats"))
		b.WriteString("\n")
		barWidth := width - statLabelWidth - 6
		if barWidth < 10 {
			barWidth = 10
		}
		bar := progress.New(
			progress.WithSolidFill(colors.Accent),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
		)
		for _, s := range d.Stats {
			label := statLabels[s.Name]
			if label == "" {
				label = catalog.DisplayName(s.Name)
			}
			fmt.Fprintf(&b, "%-*s %3d %s\n", statLabelWidth, label, s.BaseStat, bar.ViewAs(catalog.StatRatio(s.BaseStat)))
		}
		b.WriteString("\n")
	}

	if len(d.Abilities) > 0 {
		b.WriteString(sectionText.Render("Abilities"))
		b.WriteString("\n")
		for _, a := range d.Abilities {
			line := "  " + catalog.DisplayName(a.Name)
			if a.IsHidden {
				line += " " + mutedText.Render("(Hidden)")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if !d.FetchedAt.IsZero() {
		b.WriteString(mutedText.Render("cached " + humanize.Time(d.FetchedAt)))
	}
	return b.String()
}

// navHint renders the previous/next footer for id.
func navHint(id int) string {
	prev := mutedText.Render("← prev")
	if id > 1 {
		prev = "← " + catalog.FormatID(id-1)
	}
	return prev + "   " + catalog.FormatID(id+1) + " →"
}
