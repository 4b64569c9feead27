package events

import (
	"sort"
	"time"

	"github.com/voyagehq/gatekeeper/internal/models"
)

const topOffenderCount = 10

// Aggregate summarizes the events recorded within the window for the
// dashboard: totals, per-type and per-severity breakdowns, and the
// identities generating the most events.
func (s *Store) Aggregate(window time.Duration) models.DashboardStats {
	recent := s.Recent(window)

	stats := models.DashboardStats{
		TotalEvents:      len(recent),
		EventsByType:     make(map[models.EventType]int),
		EventsBySeverity: make(map[models.Severity]int),
	}

	byIdentity := make(map[string]int)
	for _, e := range recent {
		stats.EventsByType[e.Type]++
		stats.EventsBySeverity[e.Severity]++
		if e.Identity != "" {
			byIdentity[e.Identity]++
		}
	}

	offenders := make([]models.OffenderCount, 0, len(byIdentity))
	for identity, count := range byIdentity {
		offenders = append(offenders, models.OffenderCount{Identity: identity, Count: count})
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].Count != offenders[j].Count {
			return offenders[i].Count > offenders[j].Count
		}
		return offenders[i].Identity < offenders[j].Identity
	})
	if len(offenders) > topOffenderCount {
		offenders = offenders[:topOffenderCount]
	}
	stats.TopOffenders = offenders

	return stats
}
