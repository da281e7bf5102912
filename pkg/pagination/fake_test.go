package pagination

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/Sternrassler/canvas-client/pkg/transport"
)

const (
	url1 = "https://canvas.test/api/v1/items?page=1&per_page=10"
	url2 = "https://canvas.test/api/v1/items?page=2&per_page=10"
	url3 = "https://canvas.test/api/v1/items?page=3&per_page=10"
)

// fakeCanvas serves canned responses keyed by URL and records every request.
type fakeCanvas struct {
	pages   map[string]*transport.Response
	errs    map[string]error
	calls   []string
	onIssue func(rawURL string)
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{
		pages: make(map[string]*transport.Response),
		errs:  make(map[string]error),
	}
}

func (f *fakeCanvas) Issue(ctx context.Context, method, rawURL string, body *query.Body) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, rawURL)
	if f.onIssue != nil {
		f.onIssue(rawURL)
	}
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	resp, ok := f.pages[rawURL]
	if !ok {
		return &transport.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"errors":[{"message":"not found"}]}`)}, nil
	}
	c := *resp
	return &c, nil
}

func jsonPage(body, next string) *transport.Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	if next != "" {
		h.Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="first"`, next, url1))
	}
	return &transport.Response{StatusCode: http.StatusOK, Header: h, Body: []byte(body)}
}

// threePages is the ["a"], ["b","c"], ["d"] sequence.
func threePages() *fakeCanvas {
	f := newFakeCanvas()
	f.pages[url1] = jsonPage(`["a"]`, url2)
	f.pages[url2] = jsonPage(`["b","c"]`, url3)
	f.pages[url3] = jsonPage(`["d"]`, "")
	return f
}

var decodeStrings = JSON[string](BareArray)
