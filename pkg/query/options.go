package query

import (
	"fmt"
	"sort"

	qs "github.com/google/go-querystring/query"
)

// FromStruct converts a `url`-tagged options struct into Params.
//
// Keys are emitted in sorted order; values for the same key keep the order
// go-querystring produced them in, so slice fields tagged `url:"include[]"`
// survive DuplicateKeys encoding intact. A nil opts yields empty Params.
func FromStruct(mode Mode, opts any) (*Params, error) {
	p := New(mode)
	if opts == nil {
		return p, nil
	}

	values, err := qs.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p.AddStrings(k, values[k]...)
	}
	return p, nil
}
