package property

import "strings"

// Sort defines a supported ordering of search results.
type Sort string

const (
	SortByPriceAsc  Sort = "price_asc"
	SortByPriceDesc Sort = "price_desc"
	SortByNewest    Sort = "newest"

	defaultSearchLimit = 24
	maxSearchLimit     = 100
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	OwnerID       OwnerID
	City          string
	Query         string
	MinGuests     int
	PriceMinCents int64
	PriceMaxCents int64
	Sort          Sort
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.City = strings.TrimSpace(strings.ToLower(n.City))
	n.Query = strings.TrimSpace(strings.ToLower(n.Query))
	if n.MinGuests < 0 {
		n.MinGuests = 0
	}
	if n.PriceMinCents < 0 {
		n.PriceMinCents = 0
	}
	if n.PriceMaxCents > 0 && n.PriceMaxCents < n.PriceMinCents {
		n.PriceMaxCents = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	switch n.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByNewest:
	default:
		n.Sort = SortByPriceAsc
	}
	return n
}

// Matches applies the non-paging filters to a single property.
func (p SearchParams) Matches(item *Property) bool {
	if item == nil {
		return false
	}
	if p.OwnerID != "" && item.OwnerID != p.OwnerID {
		return false
	}
	if p.City != "" && !strings.EqualFold(item.City, p.City) {
		return false
	}
	if p.Query != "" {
		haystack := strings.ToLower(strings.Join([]string{item.Name, item.City, item.Region, item.Address}, " "))
		if !strings.Contains(haystack, p.Query) {
			return false
		}
	}
	if p.MinGuests > 0 && item.MaxGuests != 0 && item.MaxGuests < p.MinGuests {
		return false
	}
	if p.PriceMinCents > 0 && item.NightlyPrice.Amount < p.PriceMinCents {
		return false
	}
	if p.PriceMaxCents > 0 && item.NightlyPrice.Amount > p.PriceMaxCents {
		return false
	}
	return true
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Property
	Total int
}
