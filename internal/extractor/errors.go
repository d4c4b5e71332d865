package extractor

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies extraction failures
type FetchErrorKind string

const (
	KindTimeout FetchErrorKind = "timeout"
	KindHTTP    FetchErrorKind = "http_error"
	KindParse   FetchErrorKind = "parse_error"
)

// FetchError describes why a page could not be extracted
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" if err is not a FetchError
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
