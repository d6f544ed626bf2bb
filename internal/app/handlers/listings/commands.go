package listings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/outbox"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/shared/money"
)

const (
	createListingKey    = "listings.create"
	updateListingKey    = "listings.update"
	publishListingKey   = "listings.publish"
	unpublishListingKey = "listings.unpublish"
	deleteListingKey    = "listings.delete"
)

type CreateListingCommand struct {
	HostID string
	Input  dto.ListingInput
}

func (c CreateListingCommand) Key() string     { return createListingKey }
func (c CreateListingCommand) ActorID() string { return c.HostID }

type UpdateListingCommand struct {
	HostID    string
	ListingID string `validate:"required"`
	Input     dto.ListingInput
}

func (c UpdateListingCommand) Key() string     { return updateListingKey }
func (c UpdateListingCommand) ActorID() string { return c.HostID }

type PublishListingCommand struct {
	HostID            string
	ListingID         string          `validate:"required"`
	Availability      []dto.DateRange `validate:"dive"`
	AvailabilityStart string          `validate:"isodate"`
	AvailabilityEnd   string          `validate:"isodate"`
}

func (c PublishListingCommand) Key() string     { return publishListingKey }
func (c PublishListingCommand) ActorID() string { return c.HostID }

type UnpublishListingCommand struct {
	HostID    string
	ListingID string `validate:"required"`
}

func (c UnpublishListingCommand) Key() string     { return unpublishListingKey }
func (c UnpublishListingCommand) ActorID() string { return c.HostID }

type DeleteListingCommand struct {
	HostID    string
	ListingID string `validate:"required"`
}

func (c DeleteListingCommand) Key() string     { return deleteListingKey }
func (c DeleteListingCommand) ActorID() string { return c.HostID }

// CommandHandlers groups the host side listing use cases.
type CommandHandlers struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Clock    support.Clock
	Currency string
	Logger   *slog.Logger
}

func (h *CommandHandlers) Create(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	price, err := h.price(cmd.Input.Price)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:            domainlistings.ListingID(uuid.NewString()),
		Host:          domainlistings.HostID(cmd.HostID),
		Details:       cmd.Input.Details(),
		PricePerNight: price,
		Discounts:     cmd.Input.Metadata.Discounts(),
		Now:           h.Clock.Time(),
	})
	if err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit.Listings(), listing); err != nil {
		return nil, err
	}
	h.logger().InfoContext(ctx, "listing created", "listing_id", listing.ID, "host_id", cmd.HostID)
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandlers) Update(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	price, err := h.price(cmd.Input.Price)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Time()
	if err := listing.UpdateDetails(cmd.Input.Details(), now); err != nil {
		return nil, err
	}
	if err := listing.UpdatePricing(price, cmd.Input.Metadata.Discounts(), now); err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit.Listings(), listing); err != nil {
		return nil, err
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandlers) Publish(ctx context.Context, cmd PublishListingCommand) (*dto.Listing, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	windows, err := dto.WindowsFrom(cmd.Availability, cmd.AvailabilityStart, cmd.AvailabilityEnd)
	if err != nil {
		return nil, err
	}
	if err := listing.Publish(windows, h.Clock.Time()); err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit.Listings(), listing); err != nil {
		return nil, err
	}
	h.logger().InfoContext(ctx, "listing published", "listing_id", listing.ID, "windows", len(windows))
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandlers) Unpublish(ctx context.Context, cmd UnpublishListingCommand) (*dto.Listing, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	if err := listing.Unpublish(h.Clock.Time()); err != nil {
		return nil, err
	}
	if err := h.save(ctx, unit.Listings(), listing); err != nil {
		return nil, err
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func (h *CommandHandlers) Delete(ctx context.Context, cmd DeleteListingCommand) (struct{}, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return struct{}{}, err
	}
	listing, err := ownedListing(ctx, unit.Listings(), cmd.ListingID, cmd.HostID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
		return struct{}{}, err
	}
	h.logger().InfoContext(ctx, "listing deleted", "listing_id", listing.ID)
	return struct{}{}, nil
}

// Register wires every listing command onto bus.
func (h *CommandHandlers) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[CreateListingCommand, *dto.Listing](bus, commands.HandlerFunc[CreateListingCommand, *dto.Listing](h.Create))
	commands.RegisterHandler[UpdateListingCommand, *dto.Listing](bus, commands.HandlerFunc[UpdateListingCommand, *dto.Listing](h.Update))
	commands.RegisterHandler[PublishListingCommand, *dto.Listing](bus, commands.HandlerFunc[PublishListingCommand, *dto.Listing](h.Publish))
	commands.RegisterHandler[UnpublishListingCommand, *dto.Listing](bus, commands.HandlerFunc[UnpublishListingCommand, *dto.Listing](h.Unpublish))
	commands.RegisterHandler[DeleteListingCommand, struct{}](bus, commands.HandlerFunc[DeleteListingCommand, struct{}](h.Delete))
}

func (h *CommandHandlers) save(ctx context.Context, repo domainlistings.ListingRepository, listing *domainlistings.Listing) error {
	if err := repo.Save(ctx, listing); err != nil {
		return err
	}
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing)
}

func (h *CommandHandlers) price(value float64) (money.Money, error) {
	currency := h.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	price, err := money.FromDecimal(value, currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("price: %w", err)
	}
	return price, nil
}

func (h *CommandHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func ownedListing(ctx context.Context, repo domainlistings.ListingRepository, id, host string) (*domainlistings.Listing, error) {
	listing, err := repo.ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(host)) {
		return nil, domainlistings.ErrNotOwner
	}
	return listing, nil
}
