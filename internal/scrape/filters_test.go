package scrape_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

func TestFilterKeys(t *testing.T) {
	keys := scrape.FilterKeys()
	require.Len(t, keys, 18)

	seen := make(map[scrape.FilterKey]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
		assert.True(t, scrape.IsFilterKey(string(k)))
	}
	assert.False(t, scrape.IsFilterKey("garden"))
}

func TestFilterSpec(t *testing.T) {
	spec := scrape.FilterSpec{
		scrape.RoomsMin:     "3",
		scrape.PriceMax:     " 13000000000 ",
		scrape.PriceMin:     "500000000",
		scrape.BathroomsMax: "   ",
		"garden":            "yes",
	}

	v, ok := spec.Get(scrape.PriceMax)
	assert.True(t, ok)
	assert.Equal(t, " 13000000000 ", v, "values are passed through untouched")

	_, ok = spec.Get(scrape.BathroomsMax)
	assert.False(t, ok, "blank values are unset")

	assert.Equal(t, []scrape.FilterKey{scrape.PriceMin, scrape.PriceMax, scrape.RoomsMin}, spec.Keys())
	assert.Equal(t, []string{"garden"}, spec.Unknown())
}

func TestSiteTargets(t *testing.T) {
	cfg := config.NewDefaultConfig()
	targets := scrape.SiteTargets(cfg.Site, cfg.Scrape)

	byID := make(map[scrape.TargetID]scrape.Target)
	for _, target := range targets {
		byID[target.ID] = target
	}

	toggle, ok := byID[scrape.TargetFiltersToggle]
	require.True(t, ok)
	require.Len(t, toggle.Strategies, 3)
	assert.Contains(t, toggle.Strategies[2].Locator.Query, "Filtros")

	input := byID[scrape.TargetSearchInput]
	require.NotEmpty(t, input.Strategies)
	assert.Equal(t, dom.VisibleEnabled, input.Strategies[0].Condition)
	assert.Contains(t, input.Strategies[0].Locator.Query, cfg.Site.SearchPlaceholder)

	for _, key := range scrape.FilterKeys() {
		target, ok := byID[scrape.TargetID("filter:"+string(key))]
		require.True(t, ok, "no target for %s", key)
		require.Len(t, target.Strategies, 1)

		s := target.Strategies[0]
		if key == scrape.PropertyType || key == scrape.PropertySubtype {
			assert.True(t, strings.HasSuffix(s.Locator.Query, "-filter_button']"), s.Locator.Query)
			assert.Equal(t, dom.Visible, s.Condition)
		} else {
			assert.Contains(t, s.Locator.Query, "-filter_input-")
			assert.Equal(t, dom.VisibleEnabled, s.Condition)
		}
	}
}
