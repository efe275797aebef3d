package doctolib

import "strings"

// BaseURL is the only host this tool talks to.
const BaseURL = "https://www.doctolib.fr"

// Category classifies a URL into one of the site's traffic buckets. The
// upstream abuse thresholds are undocumented, so each bucket carries its own
// request budget.
type Category int

const (
	// CategoryNone is a malformed or non-HTTPS URL. Never fetched.
	CategoryNone Category = iota
	// CategoryUnknown is any HTTPS URL outside the site. Always allowed,
	// no budget tracked.
	CategoryUnknown
	CategoryMainSite
	CategoryAvailabilities
	CategoryOnlineBooking
)

// Classify derives the category purely from the URL shape.
func Classify(url string) Category {
	switch {
	case !strings.Contains(url, "https://"):
		return CategoryNone
	case !strings.Contains(url, BaseURL):
		return CategoryUnknown
	case strings.Contains(url, BaseURL+"/availabilities.json"):
		return CategoryAvailabilities
	case strings.Contains(url, BaseURL+"/online_booking/"):
		return CategoryOnlineBooking
	default:
		return CategoryMainSite
	}
}

// Tracked reports whether the category counts against a request budget.
func (c Category) Tracked() bool {
	switch c {
	case CategoryMainSite, CategoryAvailabilities, CategoryOnlineBooking:
		return true
	}
	return false
}

// String returns the category name, also used as the ledger key.
func (c Category) String() string {
	switch c {
	case CategoryMainSite:
		return "main_site"
	case CategoryAvailabilities:
		return "availabilities"
	case CategoryOnlineBooking:
		return "online_booking"
	case CategoryUnknown:
		return "unknown"
	}
	return "none"
}
