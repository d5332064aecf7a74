package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
)

// Logical targets of the listing site.
const (
	TargetCookieConsent   TargetID = "cookie-consent"
	TargetSearchInput     TargetID = "search-input"
	TargetSearchButton    TargetID = "search-button"
	TargetFiltersToggle   TargetID = "advanced-filters-toggle"
	TargetFilterSubmit    TargetID = "filter-submit"
	TargetResultsGrid     TargetID = "results-grid"
	TargetFirstResultCard TargetID = "first-result-card"
)

// cookieConsentTimeout is short; the banner is absent for most sessions.
const cookieConsentTimeout = 3 * time.Second

// searchButtonClass is the generated class of the search button for the
// current site build. It changes whenever the site is redeployed, which is
// why it sits behind the data-test-id strategy.
const searchButtonClass = "sc-a6c22956-0 fMdhBy sc-7856fc0a-4 kUdQjI"

const (
	resultsGridClass = "div.sc-e5f1eba3-2"
	cardPrefix       = "search-components_result-card_"
	filterPrefix     = "search-components_advanced-filters_"
)

// Card-scoped locators.
var (
	cardLocator      = dom.CSS("result card", fmt.Sprintf("article[data-test-id^='%s']", cardPrefix))
	priceLocator     = dom.CSS("card price", "[data-test-id$='_price']")
	locationLocator  = dom.CSS("card location", "[data-test-id$='_location']")
	headlineLocator  = dom.CSS("card headline", "[data-test-id$='_headline']")
	bedroomsLocator  = dom.CSS("card bedrooms", "[data-test-id$='-bedrooms']")
	bathroomsLocator = dom.CSS("card bathrooms", "[data-test-id$='-bathrooms']")
	anyLinkLocator   = dom.CSS("card link", "a[href]")
)

// cardLinkLocator anchors the link lookup on the card's own identifier.
func cardLinkLocator(cardID string) dom.Locator {
	return dom.CSS("card link by id", fmt.Sprintf("[data-test-id='%s'] a", cssEscape(cardID)))
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// SiteTargets builds the target table for the configured site. Strategies
// are ordered most specific first.
func SiteTargets(site config.SiteConfig, sc config.ScrapeConfig) []Target {
	strategy := func(loc dom.Locator, cond dom.Condition) Strategy {
		return Strategy{Locator: loc, Condition: cond, Timeout: sc.StrategyTimeout}
	}

	targets := []Target{
		{
			ID: TargetCookieConsent,
			Strategies: []Strategy{
				{Locator: dom.CSS("didomi agree button", "#didomi-notice-agree-button"), Timeout: cookieConsentTimeout},
			},
		},
		{
			ID: TargetSearchInput,
			Strategies: []Strategy{
				strategy(dom.CSS("input by placeholder", fmt.Sprintf("input[placeholder='%s']", cssEscape(site.SearchPlaceholder))), dom.VisibleEnabled),
				strategy(dom.CSS("search input by test id", "input[data-test-id*='search'][type='text']"), dom.VisibleEnabled),
				strategy(dom.XPath("first text input", "(//input[@type='text' or @type='search'])[1]"), dom.VisibleEnabled),
			},
		},
		{
			ID: TargetSearchButton,
			Strategies: []Strategy{
				strategy(dom.CSS("search button by test id", "button[data-test-id*='search-button']"), dom.Visible),
				strategy(dom.CSS("search button by class", fmt.Sprintf("button[class='%s']", searchButtonClass)), dom.Visible),
				strategy(dom.XPath("submit button", "//button[@type='submit']"), dom.Visible),
			},
		},
		{
			ID: TargetFiltersToggle,
			Strategies: []Strategy{
				strategy(dom.CSS("active filters button", "[data-test-id='search-components_filter-bar_advanced-filters-button-active']"), dom.Visible),
				strategy(dom.CSS("filters button", "[data-test-id='search-components_filter-bar_advanced-filters-button']"), dom.Visible),
				strategy(dom.XPath("filters button by label", fmt.Sprintf("//button[.//svg and contains(normalize-space(.), '%s')]", site.FiltersLabel)), dom.Visible),
			},
		},
		{
			ID: TargetFilterSubmit,
			Strategies: []Strategy{
				strategy(dom.CSS("filters submit", fmt.Sprintf("[data-test-id='%ssubmit-button']", filterPrefix)), dom.Visible),
			},
		},
		{
			ID: TargetResultsGrid,
			Strategies: []Strategy{
				strategy(dom.CSS("results grid by class", resultsGridClass), dom.Visible),
				strategy(dom.XPath("parent of result cards", fmt.Sprintf("(//article[starts-with(@data-test-id,'%s')])[1]/..", cardPrefix)), dom.Visible),
			},
		},
		{
			ID: TargetFirstResultCard,
			Strategies: []Strategy{
				{Locator: cardLocator, Condition: dom.Visible, Timeout: sc.FieldTimeout},
			},
		},
	}

	for _, f := range filterTable {
		var loc dom.Locator
		var cond dom.Condition
		switch f.mode {
		case typeAhead:
			loc = dom.CSS(string(f.key)+" button", fmt.Sprintf("[data-test-id='%s%s-filter_button']", filterPrefix, f.dimension))
			cond = dom.Visible
		case directFill:
			loc = dom.CSS(string(f.key)+" input", fmt.Sprintf("[data-test-id='%s%s-filter_input-%s']", filterPrefix, f.dimension, f.bound))
			cond = dom.VisibleEnabled
		}
		targets = append(targets, Target{
			ID:         f.target(),
			Strategies: []Strategy{{Locator: loc, Condition: cond, Timeout: sc.FieldTimeout}},
		})
	}
	return targets
}
