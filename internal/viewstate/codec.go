// Package viewstate keeps the in-memory filter state and its shareable query
// string in step with each other.
package viewstate

import (
	"net/url"
	"strings"

	"github.com/testpulse/dashboard/internal/filter"
)

const (
	ParamText   = "test"
	ParamStatus = "status"
	ParamSuite  = "suite"
)

// Encode renders q as its canonical query string. Fields at their default
// are omitted; keys are sorted so equal queries encode identically.
func Encode(q filter.Query) string {
	q = q.Normalize()
	values := url.Values{}
	if q.Text != "" {
		values.Set(ParamText, q.Text)
	}
	if q.Status != filter.All {
		values.Set(ParamStatus, q.Status)
	}
	if q.Suite != filter.All {
		values.Set(ParamSuite, q.Suite)
	}
	return values.Encode()
}

// Decode parses a query string (with or without a leading '?'). Unknown keys
// are ignored and an unparsable string decodes to the default query.
func Decode(raw string) filter.Query {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return filter.Default()
	}
	return FromValues(values)
}

// FromValues builds a query from already-parsed values, e.g. an
// http.Request's URL.Query().
func FromValues(values url.Values) filter.Query {
	q := filter.Query{
		Text:   values.Get(ParamText),
		Status: values.Get(ParamStatus),
		Suite:  values.Get(ParamSuite),
	}
	return q.Normalize()
}

// Link builds a deep link to path carrying q.
func Link(path string, q filter.Query) string {
	encoded := Encode(q)
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}
