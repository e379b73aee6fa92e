// Package viewstate holds the list/search/detail navigation state and its
// address form. A Location plays the role of a browser address: it is shown
// in the status bar, accepted on the command line and copyable, and parsing
// it back restores the same screen and page.
package viewstate

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names.
const (
	ParamPage     = "page"
	ParamFromPage = "fromPage"
)

const (
	listPath     = "/"
	detailPrefix = "/pokemon/"
)

// ErrBadLocation is returned by ParseLocation for paths that name no screen.
var ErrBadLocation = errors.New("viewstate: unknown location")

// Location is a screen address such as "/?page=3" or "/pokemon/25?fromPage=3".
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation parses a location string. An empty string is the first list
// page. Only the list path and /pokemon/<id> are accepted.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ListLocation(0), nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", s, err)
	}
	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	loc := Location{Path: path, Query: u.Query()}
	if path != listPath {
		if _, ok := loc.IsDetail(); !ok {
			return Location{}, fmt.Errorf("%w: %q", ErrBadLocation, s)
		}
	}
	return loc, nil
}

// ListLocation is the address of the list page with zero-based index.
func ListLocation(pageIndex int) Location {
	q := url.Values{}
	if p := PageParam(pageIndex); p != "" {
		q.Set(ParamPage, p)
	}
	return Location{Path: listPath, Query: q}
}

// DetailLocation is the address of a detail screen reached from the list
// page with zero-based index fromPage.
func DetailLocation(id, fromPage int) Location {
	q := url.Values{}
	if p := PageParam(fromPage); p != "" {
		q.Set(ParamFromPage, p)
	}
	return Location{Path: detailPrefix + strconv.Itoa(id), Query: q}
}

// String returns the canonical form: page is rewritten as a plain page
// number and omitted on the first page, fromPage is kept as given, and
// parameters are sorted by key.
func (l Location) String() string {
	path := l.Path
	if path == "" {
		path = listPath
	}
	q := url.Values{}
	for k, vs := range l.Query {
		if len(vs) == 0 || vs[0] == "" {
			continue
		}
		q[k] = []string{vs[0]}
	}
	if q.Get(ParamPage) != "" {
		if p := PageParam(PageIndexFrom(q, ParamPage)); p != "" {
			q.Set(ParamPage, p)
		} else {
			q.Del(ParamPage)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// WithRecord returns the detail location of id with this location's
// query carried over unchanged.
func (l Location) WithRecord(id int) Location {
	q := url.Values{}
	for k, vs := range l.Query {
		q[k] = append([]string(nil), vs...)
	}
	return Location{Path: detailPrefix + strconv.Itoa(id), Query: q}
}

// IsList reports whether the location is the list screen.
func (l Location) IsList() bool {
	return l.Path == listPath || l.Path == ""
}

// IsDetail returns the record id for a detail location.
func (l Location) IsDetail() (int, bool) {
	rest, ok := strings.CutPrefix(l.Path, detailPrefix)
	if !ok {
		return 0, false
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.TrimLeft(rest, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PageIndex is the zero-based list page of a list location.
func (l Location) PageIndex() int {
	return PageIndexFrom(l.Query, ParamPage)
}

// FromPageIndex is the zero-based list page a detail location was opened from.
func (l Location) FromPageIndex() int {
	return PageIndexFrom(l.Query, ParamFromPage)
}

// Back returns the list location a detail screen returns to. For a list
// location it returns the location itself.
func (l Location) Back() Location {
	if _, ok := l.IsDetail(); ok {
		return ListLocation(l.FromPageIndex())
	}
	return ListLocation(l.PageIndex())
}
