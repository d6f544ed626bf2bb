package booking

import (
	"context"
	"errors"
	"sort"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/uow"
	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/money"
)

const (
	listGuestBookingsKey = "booking.list_guest"
	listHostBookingsKey  = "booking.list_host"
	hostStatsKey         = "booking.host_stats"
	hostListingsPageSize = 100
)

type ListGuestBookingsQuery struct {
	GuestID   string
	ListingID string
}

func (q ListGuestBookingsQuery) Key() string     { return listGuestBookingsKey }
func (q ListGuestBookingsQuery) ActorID() string { return q.GuestID }

// ListHostBookingsQuery lists requests across the host's listings. An empty
// Status returns every status.
type ListHostBookingsQuery struct {
	HostID    string
	ListingID string
	Status    string `validate:"omitempty,oneof=pending accepted declined"`
}

func (q ListHostBookingsQuery) Key() string     { return listHostBookingsKey }
func (q ListHostBookingsQuery) ActorID() string { return q.HostID }

type HostStatsQuery struct {
	HostID    string
	ListingID string
}

func (q HostStatsQuery) Key() string     { return hostStatsKey }
func (q HostStatsQuery) ActorID() string { return q.HostID }

type ListHandlers struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Currency   string
}

func (h *ListHandlers) Guest(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByGuest(execCtx, q.GuestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	titles := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		if q.ListingID != "" && string(b.ListingID) != q.ListingID {
			continue
		}
		listing, seen := titles[b.ListingID]
		if !seen {
			listing, err = unit.Listings().ByID(execCtx, b.ListingID)
			if err != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
				return dto.BookingCollection{}, err
			}
			titles[b.ListingID] = listing
		}
		items = append(items, dto.MapBooking(b, listing))
	}
	sortBookings(items)
	return dto.BookingCollection{Items: items}, nil
}

func (h *ListHandlers) Host(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	owned, err := hostListings(execCtx, unit, q.HostID, q.ListingID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]dto.Booking, 0)
	for _, listing := range owned {
		bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		for _, b := range bookings {
			if q.Status != "" && string(b.Status) != q.Status {
				continue
			}
			items = append(items, dto.MapBooking(b, listing))
		}
	}
	sortBookings(items)
	return dto.BookingCollection{Items: items}, nil
}

func (h *ListHandlers) Stats(ctx context.Context, q HostStatsQuery) (dto.HostStats, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	owned, err := hostListings(execCtx, unit, q.HostID, q.ListingID)
	if err != nil {
		return dto.HostStats{}, err
	}
	nightly := make(map[domainlistings.ListingID]money.Money, len(owned))
	var all []*domainbooking.Booking
	for _, listing := range owned {
		nightly[listing.ID] = listing.PricePerNight
		bookings, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.HostStats{}, err
		}
		all = append(all, bookings...)
	}
	currency := h.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	stats := domainbooking.ComputeHostStats(all, nightly, h.Clock.Today(), currency)
	return dto.MapHostStats(stats), nil
}

// hostListings pages through the host's listings, or returns the single one
// named by listingID after checking ownership.
func hostListings(ctx context.Context, unit uow.UnitOfWork, hostID, listingID string) ([]*domainlistings.Listing, error) {
	if listingID != "" {
		listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
		if err != nil {
			return nil, err
		}
		if !listing.OwnedBy(domainlistings.HostID(hostID)) {
			return nil, domainlistings.ErrNotOwner
		}
		return []*domainlistings.Listing{listing}, nil
	}
	var out []*domainlistings.Listing
	for offset := 0; ; offset += hostListingsPageSize {
		res, err := unit.Listings().Search(ctx, domainlistings.SearchParams{
			Host:   domainlistings.HostID(hostID),
			Limit:  hostListingsPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) == 0 || len(out) >= res.Total {
			return out, nil
		}
	}
}

// sortBookings orders newest requests first.
func sortBookings(items []dto.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
