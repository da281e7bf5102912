package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = []byte("null")

// Envelope says where a page's element array lives in its body: either the
// body is the array (BareArray) or the body is an object whose single
// relevant property holds it (SingleKey).
type Envelope struct {
	key string
}

// BareArray selects bodies that are a JSON array.
var BareArray = Envelope{}

// SingleKey selects bodies of the form {"<key>": [...]}.
func SingleKey(key string) Envelope {
	return Envelope{key: key}
}

// Key returns the wrapping property name, or "" for BareArray.
func (e Envelope) Key() string {
	return e.key
}

// String returns a description for logs and errors.
func (e Envelope) String() string {
	if e.key == "" {
		return "bare array"
	}
	return fmt.Sprintf("%q envelope", e.key)
}

// Unwrap returns the raw element array of body. An empty or null body, or a
// null wrapped property, yields nil.
func (e Envelope) Unwrap(body []byte) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if isEmpty(body) {
		return nil, nil
	}
	if e.key == "" {
		return body, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("unwrap %s: %w", e, err)
	}
	raw, ok := obj[e.key]
	if !ok {
		return nil, fmt.Errorf("unwrap %s: property missing", e)
	}
	return raw, nil
}

// DecodeFunc turns one page body into its elements.
type DecodeFunc[T any] func(body []byte) ([]T, error)

// JSON returns a DecodeFunc that unwraps env and decodes the array with
// encoding/json.
func JSON[T any](env Envelope) DecodeFunc[T] {
	return func(body []byte) ([]T, error) {
		raw, err := env.Unwrap(body)
		if err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace(raw)
		if isEmpty(raw) {
			return nil, nil
		}

		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env, err)
		}
		return items, nil
	}
}

func isEmpty(b []byte) bool {
	return len(b) == 0 || bytes.Equal(b, jsonNull)
}

func decodePage[T any](page *Page, decode DecodeFunc[T]) ([]T, error) {
	items, err := decode(page.Body())
	if err != nil {
		return nil, &DecodeError{Index: page.Index, URL: page.URL, Err: err}
	}
	return items, nil
}
