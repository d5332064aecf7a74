package api

import (
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

// ScrapeRequest is the body of POST /scrape. Every filter is optional; a
// missing or empty value leaves the site's control untouched.
type ScrapeRequest struct {
	Location string `json:"location"`

	PropertyType    *string `json:"property_type,omitempty"`
	PropertySubtype *string `json:"property_subtype,omitempty"`

	PriceMin *string `json:"price_min,omitempty"`
	PriceMax *string `json:"price_max,omitempty"`

	LivingSurfaceMin *string `json:"living_surface_min,omitempty"`
	LivingSurfaceMax *string `json:"living_surface_max,omitempty"`
	PlotSurfaceMin   *string `json:"plot_surface_min,omitempty"`
	PlotSurfaceMax   *string `json:"plot_surface_max,omitempty"`
	TotalSurfaceMin  *string `json:"total_surface_min,omitempty"`
	TotalSurfaceMax  *string `json:"total_surface_max,omitempty"`

	RoomsMin     *string `json:"rooms_min,omitempty"`
	RoomsMax     *string `json:"rooms_max,omitempty"`
	BedroomsMin  *string `json:"bedrooms_min,omitempty"`
	BedroomsMax  *string `json:"bedrooms_max,omitempty"`
	BathroomsMin *string `json:"bathrooms_min,omitempty"`
	BathroomsMax *string `json:"bathrooms_max,omitempty"`

	ConstructionYearMin *string `json:"construction_year_min,omitempty"`
	ConstructionYearMax *string `json:"construction_year_max,omitempty"`
}

// Filters converts the request's set filters into a FilterSpec.
func (r ScrapeRequest) Filters() scrape.FilterSpec {
	fields := map[scrape.FilterKey]*string{
		scrape.PropertyType:        r.PropertyType,
		scrape.PropertySubtype:     r.PropertySubtype,
		scrape.PriceMin:            r.PriceMin,
		scrape.PriceMax:            r.PriceMax,
		scrape.LivingSurfaceMin:    r.LivingSurfaceMin,
		scrape.LivingSurfaceMax:    r.LivingSurfaceMax,
		scrape.PlotSurfaceMin:      r.PlotSurfaceMin,
		scrape.PlotSurfaceMax:      r.PlotSurfaceMax,
		scrape.TotalSurfaceMin:     r.TotalSurfaceMin,
		scrape.TotalSurfaceMax:     r.TotalSurfaceMax,
		scrape.RoomsMin:            r.RoomsMin,
		scrape.RoomsMax:            r.RoomsMax,
		scrape.BedroomsMin:         r.BedroomsMin,
		scrape.BedroomsMax:         r.BedroomsMax,
		scrape.BathroomsMin:        r.BathroomsMin,
		scrape.BathroomsMax:        r.BathroomsMax,
		scrape.ConstructionYearMin: r.ConstructionYearMin,
		scrape.ConstructionYearMax: r.ConstructionYearMax,
	}

	spec := make(scrape.FilterSpec)
	for key, v := range fields {
		if v != nil && *v != "" {
			spec[key] = *v
		}
	}
	return spec
}

// ScrapeResponse is the success envelope.
type ScrapeResponse struct {
	Status string                  `json:"status"`
	Data   []scrape.PropertyRecord `json:"data"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
