package memory

import (
	"context"
	"sort"
	"strings"

	domainbooking "airbrb/internal/domain/booking"
	domainlistings "airbrb/internal/domain/listings"
)

// unitListings reads through the unit's staged writes before the store.
type unitListings struct {
	unit *Unit
}

func (r unitListings) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	u := r.unit
	u.mu.Lock()
	staged, ok := u.listings[id]
	u.mu.Unlock()
	if ok {
		if staged.deleted {
			return nil, domainlistings.ErrListingNotFound
		}
		return staged.listing.Copy(), nil
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	listing, ok := u.store.listings[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing.Copy(), nil
}

func (r unitListings) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if listing == nil || strings.TrimSpace(string(listing.ID)) == "" {
		return domainlistings.ErrListingNotFound
	}
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	base := listing.Version
	if prev, ok := u.listings[listing.ID]; ok {
		base = prev.base
	}
	listing.Version = base + 1
	u.listings[listing.ID] = stagedListing{listing: listing.Copy(), base: base}
	return nil
}

func (r unitListings) Delete(ctx context.Context, id domainlistings.ListingID) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	if prev, ok := u.listings[id]; ok {
		if prev.deleted {
			return domainlistings.ErrListingNotFound
		}
		u.listings[id] = stagedListing{base: prev.base, deleted: true}
		return nil
	}
	u.store.mu.RLock()
	current, ok := u.store.listings[id]
	u.store.mu.RUnlock()
	if !ok {
		return domainlistings.ErrListingNotFound
	}
	u.listings[id] = stagedListing{base: current.Version, deleted: true}
	return nil
}

func (r unitListings) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	u := r.unit
	u.mu.Lock()
	staged := make(map[domainlistings.ListingID]stagedListing, len(u.listings))
	for id, s := range u.listings {
		staged[id] = s
	}
	u.mu.Unlock()

	u.store.mu.RLock()
	items := make([]*domainlistings.Listing, 0, len(u.store.listings)+len(staged))
	for id, listing := range u.store.listings {
		if _, ok := staged[id]; ok {
			continue
		}
		items = append(items, listing.Copy())
	}
	u.store.mu.RUnlock()
	for _, s := range staged {
		if !s.deleted {
			items = append(items, s.listing.Copy())
		}
	}
	return params.Apply(items), nil
}

type unitBookings struct {
	unit *Unit
}

func (r unitBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	u := r.unit
	u.mu.Lock()
	staged, ok := u.bookings[id]
	u.mu.Unlock()
	if ok {
		return staged.booking.Copy(), nil
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	b, ok := u.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Copy(), nil
}

func (r unitBookings) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || strings.TrimSpace(string(b.ID)) == "" {
		return domainbooking.ErrBookingNotFound
	}
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(); err != nil {
		return err
	}
	base := b.Version
	if prev, ok := u.bookings[b.ID]; ok {
		base = prev.base
	}
	b.Version = base + 1
	u.bookings[b.ID] = stagedBooking{booking: b.Copy(), base: base}
	return nil
}

func (r unitBookings) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool { return b.ListingID == listingID }), nil
}

func (r unitBookings) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r unitBookings) collect(match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	u := r.unit
	u.mu.Lock()
	staged := make(map[domainbooking.BookingID]*domainbooking.Booking, len(u.bookings))
	for id, s := range u.bookings {
		staged[id] = s.booking
	}
	u.mu.Unlock()

	var out []*domainbooking.Booking
	u.store.mu.RLock()
	for id, b := range u.store.bookings {
		if _, ok := staged[id]; ok {
			continue
		}
		if match(b) {
			out = append(out, b.Copy())
		}
	}
	u.store.mu.RUnlock()
	for _, b := range staged {
		if match(b) {
			out = append(out, b.Copy())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var _ domainlistings.ListingRepository = unitListings{}
var _ domainbooking.Repository = unitBookings{}
