package httputil

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ParsePagination reads page/per_page from query parameters. Page floors at
// 1; per_page outside 1..100 is rejected rather than clamped so a partner
// paging through its delivery log cannot silently miss records.
func ParsePagination(query url.Values) (page, perPage int, err error) {
	page = 1
	perPage = defaultPerPage

	if raw := query.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page parameter: must be an integer")
		}
		if page < 1 {
			page = 1
		}
	}

	if raw := query.Get("per_page"); raw != "" {
		perPage, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid per_page parameter: must be an integer")
		}
		if perPage < 1 || perPage > maxPerPage {
			return 0, 0, fmt.Errorf("per_page must be between 1 and %d", maxPerPage)
		}
	}

	return page, perPage, nil
}
