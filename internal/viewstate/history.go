package viewstate

// History is an in-memory back stack of visited locations.
type History struct {
	stack []Location
}

// Push records loc as the location to return to.
func (h *History) Push(loc Location) {
	h.stack = append(h.stack, loc)
}

// Pop returns the most recent location.
func (h *History) Pop() (Location, bool) {
	if len(h.stack) == 0 {
		return Location{}, false
	}
	loc := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	return loc, true
}

// Len is the depth of the stack.
func (h *History) Len() int {
	return len(h.stack)
}
