package cache

import (
	"time"

	"github.com/vietddude/dexagg/internal/core/domain"
)

// Default TTLs per resource class.
const (
	DefaultPriceTTL     = 30 * time.Second
	DefaultTokenTTL     = time.Hour
	DefaultPortfolioTTL = 5 * time.Minute
)

// Policy maps resource class to TTL. Classes absent from the table are never cached.
type Policy struct {
	ttls map[domain.ResourceClass]time.Duration
}

// DefaultPolicy returns the price/token/portfolio defaults.
func DefaultPolicy() Policy {
	return NewPolicy(map[domain.ResourceClass]time.Duration{
		domain.ResourcePrice:     DefaultPriceTTL,
		domain.ResourceToken:     DefaultTokenTTL,
		domain.ResourcePortfolio: DefaultPortfolioTTL,
	})
}

// NewPolicy copies ttls into a new Policy.
func NewPolicy(ttls map[domain.ResourceClass]time.Duration) Policy {
	p := Policy{ttls: make(map[domain.ResourceClass]time.Duration, len(ttls))}
	for class, ttl := range ttls {
		p.ttls[class] = ttl
	}
	return p
}

// With returns a copy of the policy with class overridden. A zero ttl disables caching.
func (p Policy) With(class domain.ResourceClass, ttl time.Duration) Policy {
	next := NewPolicy(p.ttls)
	if ttl <= 0 {
		delete(next.ttls, class)
		return next
	}
	next.ttls[class] = ttl
	return next
}

// Merge overlays overrides onto the policy.
func (p Policy) Merge(overrides map[domain.ResourceClass]time.Duration) Policy {
	next := p
	for class, ttl := range overrides {
		next = next.With(class, ttl)
	}
	return next
}

// TTL returns the TTL for class.
func (p Policy) TTL(class domain.ResourceClass) (time.Duration, bool) {
	if class == domain.ResourceNone {
		return 0, false
	}
	ttl, ok := p.ttls[class]
	return ttl, ok && ttl > 0
}
