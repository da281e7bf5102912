// Package query builds Canvas query strings and request bodies from ordered
// parameter lists.
//
// Two encodings are supported. Standard mode behaves like a map: a later value
// for a key replaces the earlier one. DuplicateKeys mode keeps every pair in
// the exact order it was added, which endpoints that read array parameters
// positionally (include[], student_ids[], interleaved id/type pairs) require.
//
// When an acting-as identity is supplied to an encoder, the as_user_id key is
// appended after every explicit pair, exactly once.
package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Mode selects how repeated keys are encoded.
type Mode int

const (
	// Standard keeps one value per key; the last write wins.
	Standard Mode = iota

	// DuplicateKeys keeps every pair in input order, including repeats.
	DuplicateKeys
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case DuplicateKeys:
		return "duplicate_keys"
	default:
		return "unknown"
	}
}

// ActingAsKey is the query key Canvas reads the masquerade identity from.
const ActingAsKey = "as_user_id"

// Pair is a single encoded key/value.
type Pair struct {
	Key   string
	Value string
}

// Params is an ordered list of request parameters.
// A nil *Params encodes as an empty parameter list.
type Params struct {
	mode  Mode
	pairs []Pair
}

// New creates an empty parameter list using the given mode.
func New(mode Mode) *Params {
	return &Params{mode: mode}
}

// Mode returns the encoding mode.
func (p *Params) Mode() Mode {
	if p == nil {
		return Standard
	}
	return p.mode
}

// Add appends key with value. Absent values (nil, a nil pointer, a nil
// slice or map) are dropped so they never reach the wire as empty strings.
// Slices and arrays add one pair per element, in order. A non-nil map has no
// defined pair order and panics.
func (p *Params) Add(key string, value any) *Params {
	rv, ok := deref(value)
	if !ok {
		return p
	}

	if _, stringer := rv.Interface().(fmt.Stringer); !stringer {
		switch rv.Kind() {
		case reflect.Slice:
			if rv.IsNil() {
				return p
			}
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				break
			}
			fallthrough
		case reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				p.Add(key, rv.Index(i).Interface())
			}
			return p
		case reflect.Map:
			if rv.IsNil() {
				return p
			}
			panic(fmt.Sprintf("query: map value for key %q has no pair order", key))
		}
	}

	p.pairs = append(p.pairs, Pair{Key: key, Value: format(rv)})
	return p
}

// AddStrings appends one pair per value, in order.
func (p *Params) AddStrings(key string, values ...string) *Params {
	for _, v := range values {
		p.pairs = append(p.pairs, Pair{Key: key, Value: v})
	}
	return p
}

// AddInts appends one pair per value, in order.
func (p *Params) AddInts(key string, values ...int64) *Params {
	for _, v := range values {
		p.pairs = append(p.pairs, Pair{Key: key, Value: strconv.FormatInt(v, 10)})
	}
	return p
}

// Len returns the number of pairs that will be encoded.
func (p *Params) Len() int {
	return len(p.Pairs())
}

// Pairs returns the effective pairs for the current mode. In Standard mode
// each key appears once, at the position of its first occurrence, carrying
// the last value written for it.
func (p *Params) Pairs() []Pair {
	if p == nil || len(p.pairs) == 0 {
		return nil
	}

	if p.mode == DuplicateKeys {
		out := make([]Pair, len(p.pairs))
		copy(out, p.pairs)
		return out
	}

	index := make(map[string]int, len(p.pairs))
	out := make([]Pair, 0, len(p.pairs))
	for _, kv := range p.pairs {
		if i, seen := index[kv.Key]; seen {
			out[i].Value = kv.Value
			continue
		}
		index[kv.Key] = len(out)
		out = append(out, kv)
	}
	return out
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	c := &Params{mode: p.mode, pairs: make([]Pair, len(p.pairs))}
	copy(c.pairs, p.pairs)
	return c
}

// Encode returns the URL query string (without a leading '?'). A non-empty
// actingAs appends as_user_id last; explicit as_user_id pairs are dropped in
// that case so the key appears exactly once.
func (p *Params) Encode(actingAs string) string {
	var b strings.Builder
	for _, kv := range p.Pairs() {
		if actingAs != "" && kv.Key == ActingAsKey {
			continue
		}
		writePair(&b, kv.Key, kv.Value)
	}
	if actingAs != "" {
		writePair(&b, ActingAsKey, actingAs)
	}
	return b.String()
}

func writePair(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(escape(key))
	b.WriteByte('=')
	b.WriteString(escape(value))
}

// deref unwraps pointers and interfaces. ok is false for nil values.
func deref(value any) (reflect.Value, bool) {
	if value == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, true
}

// format renders a single parameter value.
func format(rv reflect.Value) string {
	switch v := rv.Interface().(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Slice:
		return string(rv.Bytes())
	default:
		return fmt.Sprint(rv.Interface())
	}
}
