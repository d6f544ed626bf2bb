package listings

import (
	"context"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/queries"
	"airbrb/internal/app/uow"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

const (
	getListingKey   = "listings.get"
	listListingsKey = "listings.list"
)

type GetListingQuery struct {
	ViewerID  string
	ListingID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

// ListListingsQuery searches the catalog. Mine restricts results to the
// viewer's own listings, drafts included; otherwise only published listings
// are returned.
type ListListingsQuery struct {
	ViewerID    string
	Mine        bool
	Query       string  `validate:"max=200"`
	BedroomsMin int     `validate:"gte=0"`
	BedroomsMax int     `validate:"gte=0"`
	PriceMin    float64 `validate:"gte=0"`
	PriceMax    float64 `validate:"gte=0"`
	CheckIn     string  `validate:"isodate"`
	CheckOut    string  `validate:"isodate"`
	Sort        string  `validate:"omitempty,oneof=title price bedrooms newest rating"`
	Descending  bool
	Limit       int `validate:"gte=0"`
	Offset      int `validate:"gte=0"`
}

func (q ListListingsQuery) Key() string { return listListingsKey }

type QueryHandlers struct {
	UoWFactory uow.UoWFactory
}

// Get returns a published listing, or a draft to its owner.
func (h *QueryHandlers) Get(ctx context.Context, q GetListingQuery) (*dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.Published() && !listing.OwnedBy(domainlistings.HostID(q.ViewerID)) {
		return nil, domainlistings.ErrListingNotFound
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *QueryHandlers) List(ctx context.Context, q ListListingsQuery) (dto.ListingCollection, error) {
	if q.Mine && q.ViewerID == "" {
		return dto.ListingCollection{Items: []dto.Listing{}}, nil
	}
	params, err := q.searchParams()
	if err != nil {
		return dto.ListingCollection{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	res, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(res), nil
}

func (h *QueryHandlers) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetListingQuery, *dto.Listing](bus, queries.HandlerFunc[GetListingQuery, *dto.Listing](h.Get))
	queries.RegisterHandler[ListListingsQuery, dto.ListingCollection](bus, queries.HandlerFunc[ListListingsQuery, dto.ListingCollection](h.List))
}

func (q ListListingsQuery) searchParams() (domainlistings.SearchParams, error) {
	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return domainlistings.SearchParams{}, err
	}
	params := domainlistings.SearchParams{
		Query:       q.Query,
		BedroomsMin: q.BedroomsMin,
		BedroomsMax: q.BedroomsMax,
		Stay:        stay,
		Sort:        domainlistings.CatalogSort(q.Sort),
		Descending:  q.Descending,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.PriceMin > 0 {
		lower, _ := money.FromDecimal(q.PriceMin, money.DefaultCurrency)
		params.PriceMinCents = lower.Amount
	}
	if q.PriceMax > 0 {
		upper, _ := money.FromDecimal(q.PriceMax, money.DefaultCurrency)
		params.PriceMaxCents = upper.Amount
	}
	if q.Mine {
		params.Host = domainlistings.HostID(q.ViewerID)
	} else {
		params.OnlyPublished = true
	}
	return params.Normalized(), nil
}
