package domain

import (
	"strings"
	"time"
)

type Country struct {
	ISO2        string `json:"iso_2"`
	ISO3        string `json:"iso_3,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Region is a sellable market defined by the commerce backend.
type Region struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CurrencyCode string    `json:"currency_code"`
	Countries    []Country `json:"countries"`
}

// RegionList is a full backend listing stamped with the time it was fetched.
type RegionList struct {
	Regions   []Region  `json:"regions"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RegionMap maps lowercase ISO alpha-2 country codes to the region selling there.
// It is built once from a full region list and never patched.
type RegionMap struct {
	byCountry map[string]Region
	order     []string
}

// NewRegionMap indexes regions by country. When two regions claim the same
// country the later one in the list wins.
func NewRegionMap(regions []Region) RegionMap {
	m := RegionMap{byCountry: make(map[string]Region)}
	for _, region := range regions {
		for _, country := range region.Countries {
			code := strings.ToLower(country.ISO2)
			if _, seen := m.byCountry[code]; !seen {
				m.order = append(m.order, code)
			}
			m.byCountry[code] = region
		}
	}
	return m
}

func (m RegionMap) Get(countryCode string) (Region, bool) {
	region, ok := m.byCountry[countryCode]
	return region, ok
}

func (m RegionMap) Has(countryCode string) bool {
	_, ok := m.byCountry[countryCode]
	return ok
}

func (m RegionMap) Len() int {
	return len(m.byCountry)
}

// First returns the first country code in region list order.
func (m RegionMap) First() (string, bool) {
	if len(m.order) == 0 {
		return "", false
	}
	return m.order[0], true
}

func (m RegionMap) Countries() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Regions returns the distinct regions in the map, in first-seen order.
func (m RegionMap) Regions() []Region {
	seen := make(map[string]struct{})
	out := make([]Region, 0)
	for _, code := range m.order {
		region := m.byCountry[code]
		if _, ok := seen[region.ID]; ok {
			continue
		}
		seen[region.ID] = struct{}{}
		out = append(out, region)
	}
	return out
}
