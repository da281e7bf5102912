package query

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type actingAsKey struct{}

// WithActingAs returns a context whose requests are made on behalf of userID.
// An empty userID clears any identity set by a parent context.
func WithActingAs(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actingAsKey{}, userID)
}

// ActingAsFrom returns the acting-as identity carried by ctx.
func ActingAsFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actingAsKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SISUserID formats a SIS user identifier for use as an acting-as identity.
func SISUserID(id string) string {
	return "sis_user_id:" + id
}

// EnsureActingAs rewrites rawURL so that as_user_id appears exactly once, as
// the final query pair. Other pairs are left byte-for-byte untouched, keeping
// any positional duplicate-key encoding the server echoed back. An empty
// actingAs returns rawURL unchanged.
func EnsureActingAs(rawURL, actingAs string) (string, error) {
	if actingAs == "" {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.RawQuery = appendActingAs(u.RawQuery, actingAs)
	return u.String(), nil
}

func appendActingAs(rawQuery, actingAs string) string {
	segments := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, _, _ := strings.Cut(seg, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == ActingAsKey {
			continue
		}
		kept = append(kept, seg)
	}
	kept = append(kept, escape(ActingAsKey)+"="+escape(actingAs))
	return strings.Join(kept, "&")
}
