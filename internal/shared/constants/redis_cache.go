package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTL values for busline.
// Pattern: busline:{module}:{operation}:{identifier}

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG  = 24 * time.Hour // location directory
	TTL_STATIC_SHORT = 6 * time.Hour  // operator data
)

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // schedule details
	TTL_SEMI_STATIC_SHORT  = 1 * time.Hour    // schedule listings
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // route search results
)

// Cache key builders

func BuildScheduleKey(scheduleID string) string {
	return fmt.Sprintf("busline:schedules:detail:%s", scheduleID)
}

func BuildScheduleListKey() string {
	return "busline:schedules:list"
}

func BuildRouteSearchKey(fromID, toID string) string {
	return fmt.Sprintf("busline:schedules:route:%s:%s", fromID, toID)
}

func BuildLocationListKey() string {
	return "busline:locations:list"
}

func BuildLocationNameKey(name string) string {
	return fmt.Sprintf("busline:locations:name:%s", name)
}
