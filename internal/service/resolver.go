package service

import (
	"strings"

	"github.com/vibe-gaming/storefront-router/internal/domain"
)

const (
	// SharedTag is recorded on every shared region entry regardless of the client.
	SharedTag      = "regions"
	cacheTagPrefix = SharedTag + "-"
)

// CacheTag is the upstream caching hint for a client cache identifier.
func CacheTag(cacheID string) string {
	return cacheTagPrefix + cacheID
}

// ResolveCountryCode picks the country code for a request. First match wins:
// the code already in the path, the geolocation hint, the configured default,
// the first country of the map. With an empty map the default is returned.
func ResolveCountryCode(regions domain.RegionMap, pathCode, geoCode, defaultCode string) string {
	pathCode = strings.ToLower(pathCode)
	geoCode = strings.ToLower(strings.TrimSpace(geoCode))

	switch {
	case pathCode != "" && regions.Has(pathCode):
		return pathCode
	case geoCode != "" && regions.Has(geoCode):
		return geoCode
	case regions.Has(defaultCode):
		return defaultCode
	}

	if first, ok := regions.First(); ok {
		return first
	}

	return defaultCode
}
