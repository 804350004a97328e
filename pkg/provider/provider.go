// Package provider implements the acquisition channels: the platform API
// adapters, the RSS/Atom fallback feed reader, and the pooled scraper
// backends with their monthly quota manager.
package provider

import (
	"context"
	"errors"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

// ErrMissingCredentials is returned before any network call when an
// adapter's credentials are not configured. Callers skip the source.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrProvider wraps non-2xx responses and unparseable payloads. Callers
// skip the source; sibling fetches continue.
var ErrProvider = errors.New("provider error")

// Provider produces normalized records for one acquisition channel.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, keyword string, platforms []record.Platform) ([]record.Record, error)
}

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}
