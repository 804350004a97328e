package provider

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

// Pool distributes scrape calls across vendor backends, enforcing per-vendor
// monthly call budgets. The quota counter is read-modify-write against the
// store; the mutex keeps concurrent HTTP and ticker triggers from
// under-counting exhaustion.
type Pool struct {
	mu       sync.Mutex
	scrapers []Scraper
	limits   map[string]int // provider -> monthly call limit
	store    store.Store
	log      *logrus.Entry
	now      func() time.Time
}

// NewPool creates a pool over the given backends. limits maps provider name
// to its configured monthly call limit (floor 1).
func NewPool(scrapers []Scraper, limits map[string]int, s store.Store, log *logrus.Entry) *Pool {
	return &Pool{
		scrapers: scrapers,
		limits:   limits,
		store:    s,
		log:      log,
		now:      time.Now,
	}
}

// currentMonth is the quota bucket key. Usage rows from previous months are
// treated as empty, which implements the implicit monthly reset.
func (p *Pool) currentMonth() string {
	return p.now().UTC().Format("2006-01")
}

func (p *Pool) callsThisMonth(ctx context.Context, provider string) int {
	usage, err := p.store.GetScraperUsage(ctx, provider)
	if err != nil {
		p.log.WithError(err).WithField("provider", provider).Warn("quota read failed")
		return 0
	}
	if usage == nil || usage.Month != p.currentMonth() {
		return 0
	}
	return usage.CallsMade
}

func (p *Pool) monthlyLimit(provider string) int {
	limit := p.limits[provider]
	if limit < 1 {
		limit = 1
	}
	return limit
}

// IsEnabled reports whether a backend has credentials and budget left this
// month.
func (p *Pool) IsEnabled(ctx context.Context, s Scraper) bool {
	if !s.HasCredentials() {
		return false
	}
	return p.callsThisMonth(ctx, s.Name()) < p.monthlyLimit(s.Name())
}

// EnabledScrapers returns the backends currently passing IsEnabled, in
// configuration order.
func (p *Pool) EnabledScrapers(ctx context.Context) []Scraper {
	var enabled []Scraper
	for _, s := range p.scrapers {
		if p.IsEnabled(ctx, s) {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// registerCall increments the provider's monthly counter. Every attempted
// call counts against the budget whether or not it returned records.
func (p *Pool) registerCall(ctx context.Context, provider string) {
	month := p.currentMonth()
	calls := 0
	if usage, err := p.store.GetScraperUsage(ctx, provider); err == nil && usage != nil && usage.Month == month {
		calls = usage.CallsMade
	}
	err := p.store.SetScraperUsage(ctx, store.ScraperUsage{
		Provider:  provider,
		Month:     month,
		CallsMade: calls + 1,
	})
	if err != nil {
		p.log.WithError(err).WithField("provider", provider).Warn("quota write failed")
	}
}

// FetchPooled round-robins target calls across the enabled backends and
// returns the deduplicated union of their results. It stops early when every
// backend is exhausted. target is clamped to [1,50].
func (p *Pool) FetchPooled(ctx context.Context, keyword string, platforms []record.Platform, target int) []record.Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	target = clampLimit(target)
	var all []record.Record
	index := 0

	for i := 0; i < target; i++ {
		enabled := p.EnabledScrapers(ctx)
		if len(enabled) == 0 {
			break
		}

		s := enabled[index%len(enabled)]
		index++
		p.registerCall(ctx, s.Name())

		records, err := s.Fetch(ctx, keyword, platforms)
		if err != nil {
			p.log.WithError(err).WithField("provider", s.Name()).Warn("scrape call failed")
			continue
		}
		all = append(all, records...)
	}

	return record.Deduplicate(all)
}
