// Package linkheader parses the RFC 5988 subset of the HTTP Link header that
// Canvas uses for pagination:
//
//	<https://canvas.test/api/v1/courses?page=2&per_page=10>; rel="next",
//	<https://canvas.test/api/v1/courses?page=1&per_page=10>; rel="first"
//
// Only the angle-bracketed URL and the rel parameter carry meaning. Entries
// that cannot be parsed are skipped one at a time; the rest of the header is
// still used.
package linkheader

import (
	"errors"
	"fmt"
	"strings"
)

// Relation names Canvas sends.
const (
	RelNext    = "next"
	RelPrev    = "prev"
	RelFirst   = "first"
	RelLast    = "last"
	RelCurrent = "current"
)

// ErrMalformed is returned by ParseStrict when an entry could not be parsed.
var ErrMalformed = errors.New("malformed link header")

// Relations maps a relation name to its URL. Names are case-sensitive.
type Relations map[string]string

// Get returns the URL for rel.
func (r Relations) Get(rel string) (string, bool) {
	u, ok := r[rel]
	return u, ok && u != ""
}

// Next returns the URL of the following page.
func (r Relations) Next() (string, bool) { return r.Get(RelNext) }

// Prev returns the URL of the preceding page.
func (r Relations) Prev() (string, bool) { return r.Get(RelPrev) }

// First returns the URL of the first page.
func (r Relations) First() (string, bool) { return r.Get(RelFirst) }

// Last returns the URL of the last page. Canvas omits it when counting
// would be expensive.
func (r Relations) Last() (string, bool) { return r.Get(RelLast) }

// Current returns the URL of the page the header came from.
func (r Relations) Current() (string, bool) { return r.Get(RelCurrent) }

// Parse parses one or more Link header values. Malformed entries are skipped.
// An absent header yields an empty, non-nil Relations.
func Parse(values ...string) Relations {
	rels, _ := parse(values)
	return rels
}

// ParseStrict is Parse but reports ErrMalformed, along with the relations it
// could still read, when any entry was skipped.
func ParseStrict(values ...string) (Relations, error) {
	rels, skipped := parse(values)
	if skipped > 0 {
		return rels, fmt.Errorf("%w: %d entries skipped", ErrMalformed, skipped)
	}
	return rels, nil
}

func parse(values []string) (Relations, int) {
	rels := make(Relations)
	skipped := 0

	for _, value := range values {
		for _, entry := range split(value, ',') {
			if strings.TrimSpace(entry) == "" {
				continue
			}
			target, names, ok := parseEntry(entry)
			if !ok {
				skipped++
				continue
			}
			for _, name := range names {
				if _, exists := rels[name]; !exists {
					rels[name] = target
				}
			}
		}
	}
	return rels, skipped
}

// split splits on sep where it appears outside <...> and quoted strings.
func split(s string, sep byte) []string {
	var (
		parts   []string
		start   int
		inURL   bool
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case inURL:
			if c == '>' {
				inURL = false
			}
		case c == '<':
			inURL = true
		case c == '"':
			inQuote = true
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// parseEntry reads `<url>; param=value; ...` and returns the url and the
// space-separated names listed in rel.
func parseEntry(entry string) (string, []string, bool) {
	entry = strings.TrimSpace(entry)
	if !strings.HasPrefix(entry, "<") {
		return "", nil, false
	}
	end := strings.IndexByte(entry, '>')
	if end < 0 {
		return "", nil, false
	}
	target := strings.TrimSpace(entry[1:end])
	if target == "" {
		return "", nil, false
	}

	var names []string
	for _, param := range split(entry[end+1:], ';') {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		key, value, found := strings.Cut(param, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}
		value, ok := unquote(strings.TrimSpace(value))
		if !ok {
			return "", nil, false
		}
		names = append(names, strings.Fields(value)...)
		break
	}
	if len(names) == 0 {
		return "", nil, false
	}
	return target, names, true
}

func unquote(v string) (string, bool) {
	if !strings.HasPrefix(v, `"`) {
		return v, v != ""
	}
	if len(v) < 2 || !strings.HasSuffix(v, `"`) {
		return "", false
	}
	return strings.ReplaceAll(v[1:len(v)-1], `\"`, `"`), true
}
