package listings

import (
	"sort"
	"strings"

	"airbrb/internal/domain/availability"
	"airbrb/internal/domain/shared/daterange"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByTitle    CatalogSort = "title"
	SortByPrice    CatalogSort = "price"
	SortByBedrooms CatalogSort = "bedrooms"
	SortByNewest   CatalogSort = "newest"
	SortByRating   CatalogSort = "rating"

	defaultSearchLimit = 24
	maxSearchLimit     = 100
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Host          HostID
	OnlyPublished bool
	Query         string
	BedroomsMin   int
	BedroomsMax   int
	PriceMinCents int64
	PriceMaxCents int64
	Stay          daterange.DateRange
	Sort          CatalogSort
	Descending    bool
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Query = strings.TrimSpace(strings.ToLower(normalized.Query))
	if normalized.Stay.Validate() != nil {
		normalized.Stay = daterange.DateRange{}
	}
	if normalized.BedroomsMin < 0 {
		normalized.BedroomsMin = 0
	}
	if normalized.BedroomsMax > 0 && normalized.BedroomsMax < normalized.BedroomsMin {
		normalized.BedroomsMax = 0
	}
	if normalized.PriceMinCents < 0 {
		normalized.PriceMinCents = 0
	}
	if normalized.PriceMaxCents > 0 && normalized.PriceMaxCents < normalized.PriceMinCents {
		normalized.PriceMaxCents = 0
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByTitle, SortByPrice, SortByBedrooms, SortByNewest, SortByRating:
	default:
		normalized.Sort = SortByTitle
	}
	return normalized
}

// Matches applies the filters of already normalized params to one listing.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.OnlyPublished && !l.Published() {
		return false
	}
	if p.Host != "" && l.Host != p.Host {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(l.Title + " " + l.Address)
		if !strings.Contains(haystack, p.Query) {
			return false
		}
	}
	bedrooms := len(l.Bedrooms)
	if p.BedroomsMin > 0 && bedrooms < p.BedroomsMin {
		return false
	}
	if p.BedroomsMax > 0 && bedrooms > p.BedroomsMax {
		return false
	}
	if p.PriceMinCents > 0 && l.PricePerNight.Amount < p.PriceMinCents {
		return false
	}
	if p.PriceMaxCents > 0 && l.PricePerNight.Amount > p.PriceMaxCents {
		return false
	}
	if !p.Stay.IsZero() && !availability.WithinWindows(p.Stay, l.Availability) {
		return false
	}
	return true
}

// Apply filters, sorts and pages items according to params.
func (p SearchParams) Apply(items []*Listing) SearchResult {
	opts := p.Normalized()
	matches := make([]*Listing, 0, len(items))
	for _, l := range items {
		if opts.Matches(l) {
			matches = append(matches, l)
		}
	}
	SortListings(matches, opts.Sort, opts.Descending)

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return SearchResult{Items: matches[start:end], Total: total}
}

// SortListings orders listings in place; ties fall back to title then ID.
// Newest and rating put the highest value first unless descending is set.
func SortListings(items []*Listing, by CatalogSort, descending bool) {
	less := func(a, b *Listing) int {
		switch by {
		case SortByPrice:
			return compareInt64(a.PricePerNight.Amount, b.PricePerNight.Amount)
		case SortByBedrooms:
			return compareInt64(int64(len(a.Bedrooms)), int64(len(b.Bedrooms)))
		case SortByNewest:
			return -a.CreatedAt.Compare(b.CreatedAt)
		case SortByRating:
			if c := -compareFloat(a.Ratings.Average(), b.Ratings.Average()); c != 0 {
				return c
			}
			return -compareInt64(int64(a.Ratings.Count()), int64(b.Ratings.Count()))
		default:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if t := strings.Compare(strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)); t != 0 {
			return t < 0
		}
		return items[i].ID < items[j].ID
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Listing
	Total int
}
