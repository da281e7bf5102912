package query

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
)

// Content types produced by the body encoders.
const (
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Body is an encoded request body.
type Body struct {
	ContentType string
	Data        []byte
}

// Len returns the body size in bytes.
func (b *Body) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Form encodes the parameters as a urlencoded form body, using the same
// ordering and acting-as rules as Encode.
func (p *Params) Form(actingAs string) *Body {
	return &Body{
		ContentType: ContentTypeForm,
		Data:        []byte(p.Encode(actingAs)),
	}
}

// Multipart encodes the parameters as multipart/form-data fields, in order,
// with as_user_id as the final field when actingAs is set.
func (p *Params) Multipart(actingAs string) (*Body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, kv := range p.Pairs() {
		if actingAs != "" && kv.Key == ActingAsKey {
			continue
		}
		if err := w.WriteField(kv.Key, kv.Value); err != nil {
			return nil, fmt.Errorf("write field %q: %w", kv.Key, err)
		}
	}
	if actingAs != "" {
		if err := w.WriteField(ActingAsKey, actingAs); err != nil {
			return nil, fmt.Errorf("write field %q: %w", ActingAsKey, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return &Body{
		ContentType: w.FormDataContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func escape(s string) string {
	return url.QueryEscape(s)
}
