package scrape

import (
	"sort"
	"strings"
)

// FilterKey names one search filter.
type FilterKey string

const (
	PropertyType        FilterKey = "property_type"
	PropertySubtype     FilterKey = "property_subtype"
	PriceMin            FilterKey = "price_min"
	PriceMax            FilterKey = "price_max"
	LivingSurfaceMin    FilterKey = "living_surface_min"
	LivingSurfaceMax    FilterKey = "living_surface_max"
	PlotSurfaceMin      FilterKey = "plot_surface_min"
	PlotSurfaceMax      FilterKey = "plot_surface_max"
	TotalSurfaceMin     FilterKey = "total_surface_min"
	TotalSurfaceMax     FilterKey = "total_surface_max"
	RoomsMin            FilterKey = "rooms_min"
	RoomsMax            FilterKey = "rooms_max"
	BedroomsMin         FilterKey = "bedrooms_min"
	BedroomsMax         FilterKey = "bedrooms_max"
	BathroomsMin        FilterKey = "bathrooms_min"
	BathroomsMax        FilterKey = "bathrooms_max"
	ConstructionYearMin FilterKey = "construction_year_min"
	ConstructionYearMax FilterKey = "construction_year_max"
)

// FilterSpec is a sparse set of filter values. A missing or empty value
// leaves the corresponding control untouched.
type FilterSpec map[FilterKey]string

// Get returns the value for key exactly as given and whether it is set.
// A blank value counts as unset.
func (s FilterSpec) Get(key FilterKey) (string, bool) {
	v := s[key]
	return v, strings.TrimSpace(v) != ""
}

// Keys returns the set keys in table order.
func (s FilterSpec) Keys() []FilterKey {
	var keys []FilterKey
	for _, f := range filterTable {
		if _, ok := s.Get(f.key); ok {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Unknown returns keys that are not filters at all, sorted.
func (s FilterSpec) Unknown() []string {
	var unknown []string
	for k := range s {
		if !IsFilterKey(string(k)) {
			unknown = append(unknown, string(k))
		}
	}
	sort.Strings(unknown)
	return unknown
}

// applyMode is how a filter control takes its value.
type applyMode int

const (
	// typeAhead controls are clicked, typed into and confirmed with Enter.
	typeAhead applyMode = iota
	// directFill controls are plain inputs.
	directFill
)

// filterField binds a filter key to its control on the site.
type filterField struct {
	key       FilterKey
	dimension string
	bound     string // "min" or "max" for range inputs
	mode      applyMode
}

func (f filterField) target() TargetID {
	return TargetID("filter:" + string(f.key))
}

// filterTable lists every supported filter in the order the controls are
// applied.
var filterTable = []filterField{
	{key: PropertyType, dimension: "property-type", mode: typeAhead},
	{key: PropertySubtype, dimension: "property-sub-type", mode: typeAhead},
	{key: PriceMin, dimension: "price", bound: "min", mode: directFill},
	{key: PriceMax, dimension: "price", bound: "max", mode: directFill},
	{key: LivingSurfaceMin, dimension: "living-surface", bound: "min", mode: directFill},
	{key: LivingSurfaceMax, dimension: "living-surface", bound: "max", mode: directFill},
	{key: PlotSurfaceMin, dimension: "plot-surface", bound: "min", mode: directFill},
	{key: PlotSurfaceMax, dimension: "plot-surface", bound: "max", mode: directFill},
	{key: TotalSurfaceMin, dimension: "total-surface", bound: "min", mode: directFill},
	{key: TotalSurfaceMax, dimension: "total-surface", bound: "max", mode: directFill},
	{key: RoomsMin, dimension: "rooms", bound: "min", mode: directFill},
	{key: RoomsMax, dimension: "rooms", bound: "max", mode: directFill},
	{key: BedroomsMin, dimension: "bedrooms", bound: "min", mode: directFill},
	{key: BedroomsMax, dimension: "bedrooms", bound: "max", mode: directFill},
	{key: BathroomsMin, dimension: "bathrooms", bound: "min", mode: directFill},
	{key: BathroomsMax, dimension: "bathrooms", bound: "max", mode: directFill},
	{key: ConstructionYearMin, dimension: "construction-year", bound: "min", mode: directFill},
	{key: ConstructionYearMax, dimension: "construction-year", bound: "max", mode: directFill},
}

// FilterKeys returns every supported filter key in application order.
func FilterKeys() []FilterKey {
	keys := make([]FilterKey, len(filterTable))
	for i, f := range filterTable {
		keys[i] = f.key
	}
	return keys
}

// IsFilterKey reports whether name is a supported filter key.
func IsFilterKey(name string) bool {
	for _, f := range filterTable {
		if string(f.key) == name {
			return true
		}
	}
	return false
}
