// Package policy decides whether a cached visura must be re-fetched.
package policy

import (
	"time"

	"github.com/abruzzotech/attesta/internal/visura/domain"
)

// Decide is a pure function; all timestamps are UTC. The checks run in
// priority order and the first match wins.
func Decide(
	forceUpdate bool,
	ttlDays int,
	stored *domain.Visura,
	remoteObjectExists bool,
	now time.Time,
) domain.Decision {
	if forceUpdate {
		return domain.Decision{Refetch: true, Reason: domain.ReasonForceUpdate}
	}

	if stored == nil {
		return domain.Decision{Refetch: true, Reason: domain.ReasonDBMissing}
	}

	if !remoteObjectExists {
		return domain.Decision{Refetch: true, Reason: domain.ReasonStorageMissing}
	}

	if ttlDays <= 0 {
		return domain.Decision{Refetch: false, Reason: domain.ReasonTTLDisabled}
	}

	if stored.FetchedAt == nil {
		return domain.Decision{Refetch: true, Reason: domain.ReasonMissingFetchedAt}
	}

	ttl := time.Duration(ttlDays) * 24 * time.Hour
	if now.UTC().Sub(stored.FetchedAt.UTC()) >= ttl {
		return domain.Decision{Refetch: true, Reason: domain.ReasonTTLExpired}
	}

	return domain.Decision{Refetch: false, Reason: domain.ReasonFreshEnough}
}
