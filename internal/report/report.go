// Package report renders catalog records as plain text for the
// non-interactive commands.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/smileynet/dex/internal/catalog"
	"github.com/smileynet/dex/internal/viewstate"
)

// statBarWidth is the number of cells of a full (255) stat bar.
const statBarWidth = 30

// ListPage writes one page of the list. pageIndex is zero-based.
func ListPage(w io.Writer, page catalog.ListPage, pageIndex, pageSize int) error {
	var b strings.Builder
	pages := viewstate.PageCount(page.TotalCount, pageSize)
	if len(page.Items) == 0 {
		b.WriteString("No Pokemon available.\n")
		if pages > 0 {
			fmt.Fprintf(&b, "Page %d is past the last page (%d).\n", pageIndex+1, pages)
		}
		return write(w, b.String())
	}
	fmt.Fprintf(&b, "Page %d of %d (%s Pokemon)\n", pageIndex+1, pages, humanize.Comma(int64(page.TotalCount)))
	b.WriteString(itemTable(page.Items))
	b.WriteString("\n")
	return write(w, b.String())
}

// SearchResults writes the matches for term.
func SearchResults(w io.Writer, term string, page catalog.ListPage) error {
	if len(page.Items) == 0 {
		return write(w, "No Pokemon found matching your search.\n")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %s Pokemon matching %q\n", humanize.Comma(int64(page.TotalCount)), term)
	b.WriteString(itemTable(page.Items))
	b.WriteString("\n")
	return write(w, b.String())
}

// Detail writes a full record.
func Detail(w io.Writer, d catalog.Detail) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", catalog.DisplayName(d.Name), catalog.FormatID(d.ID))

	types := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		types = append(types, t.Name)
	}
	fmt.Fprintf(&b, "%-9s %s\n", "Types:", strings.Join(types, ", "))
	fmt.Fprintf(&b, "%-9s %.1f m\n", "Height:", d.HeightMeters())
	fmt.Fprintf(&b, "%-9s %.1f kg\n", "Weight:", d.WeightKilograms())
	if d.BaseExperience > 0 {
		fmt.Fprintf(&b, "%-9s %s\n", "Base XP:", humanize.Comma(int64(d.BaseExperience)))
	}
	if d.HasSprite() {
		fmt.Fprintf(&b, "%-9s %s\n", "Sprite:", d.Sprite)
	} else {
		fmt.Fprintf(&b, "%-9s %s\n", "Sprite:", "No image available")
	}

	if len(d.Stats) > 0 {
		b.WriteString("\nBase stats\n")
		for _, s := range d.Stats {
			cells := int(catalog.StatRatio(s.BaseStat)*statBarWidth + 0.5)
			fmt.Fprintf(&b, "  %-16s %3d %s\n", catalog.DisplayName(s.Name), s.BaseStat, strings.Repeat("█", cells))
		}
	}

	if len(d.Abilities) > 0 {
		b.WriteString("\nAbilities\n")
		for _, a := range d.Abilities {
			line := "  " + catalog.DisplayName(a.Name)
			if a.IsHidden {
				line += " (Hidden)"
			}
			b.WriteString(line + "\n")
		}
	}

	if !d.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "\nFetched %s\n", humanize.Time(d.FetchedAt))
	}
	return write(w, b.String())
}

// NotFound writes the message for an unknown id or name.
func NotFound(w io.Writer, ref string) error {
	return write(w, fmt.Sprintf("Pokemon not found: %q doesn't exist.\n", ref))
}

func itemTable(items []catalog.ListItem) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		sprite := ""
		if it.KnownID() {
			sprite = catalog.SpriteURL(it.ID)
		}
		rows = append(rows, []string{catalog.FormatID(it.ID), catalog.DisplayName(it.Name), sprite})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NO.", "NAME", "SPRITE").
		Rows(rows...).
		String()
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
