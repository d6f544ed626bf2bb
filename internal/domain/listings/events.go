package listings

import (
	"time"

	"airbrb/internal/domain/shared/daterange"
)

type ListingCreatedEvent struct {
	ListingID ListingID
	HostID    HostID
	At        time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingPublishedEvent struct {
	ListingID    ListingID
	HostID       HostID
	Availability []daterange.DateRange
	At           time.Time
}

func (e ListingPublishedEvent) EventName() string     { return "listing.published" }
func (e ListingPublishedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingPublishedEvent) OccurredAt() time.Time { return e.At }

type ListingUnpublishedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUnpublishedEvent) EventName() string     { return "listing.unpublished" }
func (e ListingUnpublishedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUnpublishedEvent) OccurredAt() time.Time { return e.At }

type ListingUpdatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdatedEvent) EventName() string     { return "listing.updated" }
func (e ListingUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdatedEvent) OccurredAt() time.Time { return e.At }

func newListingCreatedEvent(id ListingID, host HostID, at time.Time) ListingCreatedEvent {
	return ListingCreatedEvent{ListingID: id, HostID: host, At: at}
}

func newListingPublishedEvent(id ListingID, host HostID, windows []daterange.DateRange, at time.Time) ListingPublishedEvent {
	return ListingPublishedEvent{ListingID: id, HostID: host, Availability: append([]daterange.DateRange(nil), windows...), At: at}
}

func newListingUnpublishedEvent(id ListingID, at time.Time) ListingUnpublishedEvent {
	return ListingUnpublishedEvent{ListingID: id, At: at}
}

func newListingUpdatedEvent(id ListingID, at time.Time) ListingUpdatedEvent {
	return ListingUpdatedEvent{ListingID: id, At: at}
}
