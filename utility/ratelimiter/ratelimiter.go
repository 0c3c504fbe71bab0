package ratelimiter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"custody-processor/utility/logger"
)

// MethodQuota ... per-minute call quota keyed by HTTP method
type MethodQuota map[string]int

// EndpointQuotas ... quotas keyed by endpoint template. A ":param" segment in a
// template matches any concrete path segment.
type EndpointQuotas map[string]MethodQuota

// DefaultQuotas ... the custody provider's published per-endpoint rate ceilings
func DefaultQuotas() EndpointQuotas {
	return EndpointQuotas{
		"/v1/transactions": {
			"GET":  100,
			"POST": 180,
		},
		"/v1/vault/accounts": {
			"POST": 100,
		},
		"/v1/vault/accounts/:param": {
			"GET": 180,
		},
		"/v1/vault/accounts/:param/:param": {
			"GET":  180,
			"POST": 100,
		},
		"/v1/estimate_fee": {
			"POST": 20,
		},
		"/v1/vault/accounts/:param/:param/addresses": {
			"POST": 100,
		},
	}
}

type bucket struct {
	tokens     float64
	perMinute  float64
	lastRefill time.Time
}

// Limiter ... one token bucket per (method, endpoint template) pair, refilled
// continuously to the per-minute quota
type Limiter struct {
	mu        sync.Mutex
	quotas    EndpointQuotas
	templates []string
	buckets   map[string]*bucket
	skipWait  bool
	now       func() time.Time
	sleep     func(time.Duration)
}

// New ... skipWait disables blocking, for test configuration
func New(quotas EndpointQuotas, skipWait bool) *Limiter {
	limiter := &Limiter{
		quotas:   quotas,
		buckets:  make(map[string]*bucket),
		skipWait: skipWait,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for template, methodQuotas := range quotas {
		limiter.templates = append(limiter.templates, template)
		for method, quota := range methodQuotas {
			limiter.buckets[bucketKey(method, template)] = &bucket{
				tokens:     float64(quota),
				perMinute:  float64(quota),
				lastRefill: limiter.now(),
			}
		}
	}
	return limiter
}

func bucketKey(method, template string) string {
	return fmt.Sprintf("%s:%s", method, template)
}

// Throttle attributes the call to the best matching endpoint template and takes a
// token from its bucket. When the bucket is exhausted it blocks for the time the
// bucket needs to refill one token, and returns the wait it applied (or would
// have applied under test configuration). Unclassified calls pass through.
func (limiter *Limiter) Throttle(method, path string) time.Duration {
	template := limiter.Normalize(path)
	key := bucketKey(method, template)

	limiter.mu.Lock()
	b, ok := limiter.buckets[key]
	if !ok {
		limiter.mu.Unlock()
		logger.Warning("No rate limit defined for endpoint: %s %s", method, template)
		return 0
	}

	elapsed := limiter.now().Sub(b.lastRefill)
	b.tokens = b.tokens + elapsed.Minutes()*b.perMinute
	if b.tokens > b.perMinute {
		b.tokens = b.perMinute
	}
	b.lastRefill = limiter.now()
	b.tokens--
	remaining := b.tokens
	limiter.mu.Unlock()

	if remaining >= 0 {
		return 0
	}

	wait := time.Duration(-remaining / b.perMinute * float64(time.Minute))
	logger.Warning("Rate limit reached for %s %s. Waiting %v", method, template, wait)
	if !limiter.skipWait {
		// Callers must not hold ledger locks across this sleep.
		limiter.sleep(wait)
	}
	return wait
}

// Normalize matches a concrete path against the known endpoint templates by
// positional segment comparison and returns the longest matching template. A
// path matching no template is returned unchanged.
func (limiter *Limiter) Normalize(path string) string {
	parts := splitSegments(path)
	bestMatch := ""
	bestMatchParts := 0

	for _, template := range limiter.templates {
		templateParts := splitSegments(template)
		if len(templateParts) > len(parts) {
			continue
		}

		matches := true
		for i := range templateParts {
			if templateParts[i] != parts[i] && templateParts[i] != ":param" {
				matches = false
				break
			}
		}

		if matches && len(templateParts) > bestMatchParts {
			bestMatch = template
			bestMatchParts = len(templateParts)
		}
	}

	if bestMatch == "" {
		return path
	}
	return bestMatch
}

func splitSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
