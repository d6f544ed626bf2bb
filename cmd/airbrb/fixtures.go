package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	listingapp "airbrb/internal/app/handlers/listings"
)

// listingFixture seeds one listing. Listings whose metadata carries
// availability are published with it.
type listingFixture struct {
	Host    string           `json:"host"`
	Listing dto.ListingInput `json:"listing"`
}

// loadListingFixtures creates listings through the command bus so fixtures
// pass the same validation and emit the same events as API calls.
func (a *application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	imported := 0
	for i, fx := range fixtures {
		created, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](ctx, a.commands, listingapp.CreateListingCommand{
			HostID: fx.Host,
			Input:  fx.Listing,
		})
		if err != nil {
			logger.Error("fixture invalid", "index", i, "title", fx.Listing.Title, "error", err)
			continue
		}
		meta := fx.Listing.Metadata
		if len(meta.Availability) > 0 || meta.AvailabilityStart != "" {
			_, err := commands.Dispatch[listingapp.PublishListingCommand, *dto.Listing](ctx, a.commands, listingapp.PublishListingCommand{
				HostID:            fx.Host,
				ListingID:         created.ID,
				Availability:      meta.Availability,
				AvailabilityStart: meta.AvailabilityStart,
				AvailabilityEnd:   meta.AvailabilityEnd,
			})
			if err != nil {
				logger.Error("fixture publish failed", "listing_id", created.ID, "error", err)
				continue
			}
		}
		imported++
		logger.Debug("listing fixture imported", "listing_id", created.ID)
	}
	logger.Info("listing fixtures loaded", "path", path, "imported", imported, "total", len(fixtures))
	return nil
}

// resolveFixturesPath returns configured, or the first conventional location
// that exists, or "" when there is none.
func resolveFixturesPath(configured string) string {
	if configured != "" {
		return configured
	}
	for _, candidate := range []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("testdata", "listings.json"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
