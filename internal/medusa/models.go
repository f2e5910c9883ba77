package medusa

import "github.com/vibe-gaming/storefront-router/internal/domain"

// regionsResponse is the part of GET /store/regions the router relies on.
// Everything else the backend sends is ignored.
type regionsResponse struct {
	Regions []storeRegion `json:"regions" validate:"required,dive"`
}

type storeRegion struct {
	ID           string         `json:"id" validate:"required"`
	Name         string         `json:"name" validate:"required"`
	CurrencyCode string         `json:"currency_code" validate:"required"`
	Countries    []storeCountry `json:"countries" validate:"dive"`
}

type storeCountry struct {
	ISO2        string `json:"iso_2" validate:"required,countrycode"`
	ISO3        string `json:"iso_3"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Status is the answer of the backend health probe.
type Status struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

func (r storeRegion) toDomain() domain.Region {
	countries := make([]domain.Country, 0, len(r.Countries))
	for _, c := range r.Countries {
		countries = append(countries, domain.Country{
			ISO2:        c.ISO2,
			ISO3:        c.ISO3,
			Name:        c.Name,
			DisplayName: c.DisplayName,
		})
	}

	return domain.Region{
		ID:           r.ID,
		Name:         r.Name,
		CurrencyCode: r.CurrencyCode,
		Countries:    countries,
	}
}
