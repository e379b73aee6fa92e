package viewstate

import (
	"net/url"
	"strconv"
	"strings"
)

// PageIndexFrom reads the one-based page parameter key from v and returns
// the zero-based index. Only the leading digits count, so "2.5" and "2abc"
// are page 2. Missing, non-numeric and non-positive values mean the first
// page.
func PageIndexFrom(v url.Values, key string) int {
	s := strings.TrimSpace(v.Get(key))
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 1 {
		return 0
	}
	return n - 1
}

// PageParam returns the one-based page parameter for a zero-based index, or
// "" for the first page so default addresses stay canonical.
func PageParam(pageIndex int) string {
	if pageIndex <= 0 {
		return ""
	}
	return strconv.Itoa(pageIndex + 1)
}

// PageCount returns ceil(total/size), or 0 when either is non-positive.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Offset returns the record offset of a zero-based page.
func Offset(pageIndex, size int) int {
	if pageIndex < 0 || size <= 0 {
		return 0
	}
	return pageIndex * size
}

// Correct clamps pageIndex to the last page once the total is known. It
// reports whether a correction was needed. An empty result set corrects
// nothing.
func Correct(pageIndex, total, size int) (int, bool) {
	count := PageCount(total, size)
	if count == 0 || pageIndex < count {
		return pageIndex, false
	}
	return count - 1, true
}
