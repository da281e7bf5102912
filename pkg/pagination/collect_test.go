package pagination

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Sternrassler/canvas-client/pkg/transport"
)

func TestCollect_ThreePages(t *testing.T) {
	f := threePages()
	items, err := Collect(context.Background(), FromURL(f, url1, quiet()), decodeStrings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []string{"a", "b", "c", "d"}
	if !equalStrings(items, want) {
		t.Errorf("Collect() = %v, want %v", items, want)
	}
	if len(f.calls) != 3 {
		t.Errorf("requests = %d, want 3", len(f.calls))
	}
}

func TestCollect_EmptyPagesContributeNothing(t *testing.T) {
	f := newFakeCanvas()
	f.pages[url1] = jsonPage(`["a"]`, url2)
	f.pages[url2] = jsonPage(``, url3)
	f.pages[url3] = jsonPage(`null`, "")

	items, err := Collect(context.Background(), FromURL(f, url1, quiet()), decodeStrings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if !equalStrings(items, []string{"a"}) {
		t.Errorf("Collect() = %v, want [a]", items)
	}
}

func TestCollect_NoElementsIsEmptyNotNil(t *testing.T) {
	f := newFakeCanvas()
	f.pages[url1] = jsonPage(`[]`, "")

	items, err := Collect(context.Background(), FromURL(f, url1, quiet()), decodeStrings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Collect() = %#v, want empty slice", items)
	}
}

func TestCollect_AllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeCanvas)
		check func(t *testing.T, err error)
	}{
		{
			name: "transport error on last page",
			setup: func(f *fakeCanvas) {
				f.pages[url3] = &transport.Response{StatusCode: http.StatusBadGateway}
			},
			check: func(t *testing.T, err error) {
				var te *transport.Error
				if !errors.As(err, &te) || te.StatusCode != http.StatusBadGateway {
					t.Errorf("error = %v, want 502 transport error", err)
				}
			},
		},
		{
			name: "decode error on middle page",
			setup: func(f *fakeCanvas) {
				f.pages[url2] = jsonPage(`{"not":"an array"}`, url3)
			},
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("error = %v, want *DecodeError", err)
				}
				if de.Index != 2 || de.URL != url2 {
					t.Errorf("DecodeError = page %d %s, want page 2 %s", de.Index, de.URL, url2)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := threePages()
			tt.setup(f)

			p := FromURL(f, url1, quiet())
			items, err := Collect(context.Background(), p, decodeStrings)
			if err == nil {
				t.Fatal("Collect() expected error")
			}
			if items != nil {
				t.Errorf("Collect() returned partial data %v", items)
			}
			tt.check(t, err)
			if p.State() != StateExhausted {
				t.Errorf("State() = %v, want exhausted", p.State())
			}
		})
	}
}

func TestCollect_SingleKeyEnvelope(t *testing.T) {
	f := newFakeCanvas()
	f.pages[url1] = jsonPage(`{"grading_periods":[{"id":1,"title":"Q1"}],"meta":{"primary_collection":"grading_periods"}}`, url2)
	f.pages[url2] = jsonPage(`{"grading_periods":[{"id":2,"title":"Q2"},{"id":3,"title":"Q3"}]}`, "")

	type period struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}

	items, err := Collect(context.Background(), FromURL(f, url1, quiet()), JSON[period](SingleKey("grading_periods")))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(items) != 3 || items[0].Title != "Q1" || items[2].ID != 3 {
		t.Errorf("Collect() = %+v", items)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
