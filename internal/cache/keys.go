package cache

import (
	"fmt"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

// QuartersUsageKey is the cache key for the raw attendee+leader occupancy
// count of one (faction enrollment, quarters) pair.
func QuartersUsageKey(factionEnrollmentID, quartersID uint64) string {
	return fmt.Sprintf("quarters_usage:%d:%d", factionEnrollmentID, quartersID)
}

// AvailabilityKey is the cache key for one ledger entry's remaining
// count, addressed by its resource key so readers need no row id.
func AvailabilityKey(key model.ResourceKey) string {
	return fmt.Sprintf("availability:%s:%d:%d:%d:%d",
		key.Kind, key.FacilityEnrollmentID, key.WeekID, key.QuartersID, key.ClassOfferingID)
}
