package utils

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// QueryInt gets an integer query parameter with a default value
func QueryInt(values url.Values, key string, defaultValue int) int {
	if value := strings.TrimSpace(values.Get(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Pagination clamps page and per-page query values into a usable range
func Pagination(values url.Values) (page, perPage int) {
	page = QueryInt(values, "page", 1)
	perPage = QueryInt(values, "per_page", DefaultPerPage)

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return page, perPage
}
