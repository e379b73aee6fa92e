package viewstate

import (
	"strings"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before a search
// term takes effect.
const DefaultDebounce = 300 * time.Millisecond

// Search tracks the raw search input and its debounced value. The raw value
// echoes every keystroke; only the debounced value drives queries.
//
// Debouncing is token based: every Input returns a new token, and the
// caller schedules Settle(token) after Delay. Only the most recent token
// settles, so a burst of keystrokes produces one query.
type Search struct {
	raw       string
	debounced string
	token     uint64
	delay     time.Duration
}

// NewSearch returns an empty search. A non-positive delay uses DefaultDebounce.
func NewSearch(delay time.Duration) Search {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return Search{delay: delay}
}

// Delay is the debounce delay.
func (s *Search) Delay() time.Duration {
	return s.delay
}

// Input records a keystroke and returns the token to settle after Delay.
func (s *Search) Input(v string) uint64 {
	s.raw = v
	s.token++
	return s.token
}

// Settle promotes the raw value to the debounced value if token is still the
// latest. It reports whether the debounced value changed.
func (s *Search) Settle(token uint64) bool {
	if token != s.token {
		return false
	}
	next := strings.TrimSpace(s.raw)
	if next == s.debounced {
		return false
	}
	s.debounced = next
	return true
}

// Clear empties both values at once and invalidates pending tokens.
// It reports whether the debounced value changed.
func (s *Search) Clear() bool {
	s.token++
	s.raw = ""
	changed := s.debounced != ""
	s.debounced = ""
	return changed
}

// Raw is the value shown in the input box.
func (s *Search) Raw() string {
	return s.raw
}

// Term is the debounced, trimmed value.
func (s *Search) Term() string {
	return s.debounced
}

// Active reports whether a non-empty debounced term is in effect.
func (s *Search) Active() bool {
	return s.debounced != ""
}

// Pending reports whether the raw value has not settled yet.
func (s *Search) Pending() bool {
	return strings.TrimSpace(s.raw) != s.debounced
}
