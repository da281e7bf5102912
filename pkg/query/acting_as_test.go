package query

import (
	"context"
	"testing"
)

func TestActingAsContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := ActingAsFrom(ctx); ok {
		t.Error("background context should carry no identity")
	}

	ctx = WithActingAs(ctx, "123")
	if id, ok := ActingAsFrom(ctx); !ok || id != "123" {
		t.Errorf("ActingAsFrom() = %q, %v, want 123, true", id, ok)
	}

	cleared := WithActingAs(ctx, "")
	if _, ok := ActingAsFrom(cleared); ok {
		t.Error("empty identity should clear the parent identity")
	}

	if SISUserID("abc") != "sis_user_id:abc" {
		t.Errorf("SISUserID() = %q", SISUserID("abc"))
	}
}

func TestEnsureActingAs(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		actingAs string
		want     string
	}{
		{
			name:     "no identity leaves url untouched",
			rawURL:   "https://canvas.test/api/v1/courses?page=2&per_page=10",
			actingAs: "",
			want:     "https://canvas.test/api/v1/courses?page=2&per_page=10",
		},
		{
			name:     "appended to existing query",
			rawURL:   "https://canvas.test/api/v1/courses?include%5B%5D=a&include%5B%5D=b&page=2",
			actingAs: "9",
			want:     "https://canvas.test/api/v1/courses?include%5B%5D=a&include%5B%5D=b&page=2&as_user_id=9",
		},
		{
			name:     "server echoed identity moved to the end",
			rawURL:   "https://canvas.test/api/v1/courses?as_user_id=9&page=3",
			actingAs: "9",
			want:     "https://canvas.test/api/v1/courses?page=3&as_user_id=9",
		},
		{
			name:     "stale identity replaced",
			rawURL:   "https://canvas.test/api/v1/courses?as_user_id=1&as_user_id=2",
			actingAs: "3",
			want:     "https://canvas.test/api/v1/courses?as_user_id=3",
		},
		{
			name:     "no query",
			rawURL:   "https://canvas.test/api/v1/users/self",
			actingAs: "sis_user_id:s1",
			want:     "https://canvas.test/api/v1/users/self?as_user_id=sis_user_id%3As1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureActingAs(tt.rawURL, tt.actingAs)
			if err != nil {
				t.Fatalf("EnsureActingAs() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EnsureActingAs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureActingAs_InvalidURL(t *testing.T) {
	if _, err := EnsureActingAs("http://[::1", "1"); err == nil {
		t.Error("expected error for unparsable url")
	}
}
