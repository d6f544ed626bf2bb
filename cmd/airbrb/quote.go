package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"airbrb/internal/app/dto"
	domainbooking "airbrb/internal/domain/booking"
	"airbrb/internal/domain/eligibility"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
)

var ErrStayRejected = errors.New("stay rejected")

const quoteLong = `Reads a JSON document with "listing", "bookings" and "dateRange" from the
file argument or stdin and prints the quote, or the rejection reason.

The listing uses the same shape as POST /api/v1/listings; bookings carry
"dateRange" and "status" (pending, accepted or declined).`

// quoteSnapshot is a listing with its bookings and a proposed stay, in the
// same wire shapes the API accepts.
type quoteSnapshot struct {
	Listing   dto.ListingInput  `json:"listing"`
	Bookings  []snapshotBooking `json:"bookings"`
	DateRange dto.DateRange     `json:"dateRange"`
}

type snapshotBooking struct {
	ID        string        `json:"id"`
	DateRange dto.DateRange `json:"dateRange"`
	Status    string        `json:"status"`
}

type quoteOptions struct {
	today    string
	timezone string
	currency string
}

func quoteCmd() *cobra.Command {
	opts := quoteOptions{}
	cmd := &cobra.Command{
		Use:   "quote [snapshot.json]",
		Short: "Check a stay against a listing snapshot and print its price",
		Long:  quoteLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			today, err := opts.resolveToday(time.Now())
			if err != nil {
				return err
			}
			return runQuote(in, cmd.OutOrStdout(), today, opts.currency)
		},
	}
	cmd.Flags().StringVar(&opts.today, "today", "", "calendar day to treat as today (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "UTC", "IANA zone used to compute today when --today is not set")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "currency of the listing price")
	return cmd
}

func (o quoteOptions) resolveToday(now time.Time) (time.Time, error) {
	if o.today != "" {
		day, err := daterange.ParseDate(o.today)
		if err != nil {
			return time.Time{}, fmt.Errorf("--today: %w", err)
		}
		return day, nil
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("--timezone: %w", err)
	}
	return daterange.Today(now, loc), nil
}

// runQuote prints a dto.Quote on success and a dto.Rejection followed by
// ErrStayRejected when a check fails.
func runQuote(in io.Reader, out io.Writer, today time.Time, currency string) error {
	var snap quoteSnapshot
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	req, err := snap.request(today, currency)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	res, err := eligibility.Validate(req)
	if err != nil {
		rejection, ok := eligibility.AsRejection(err)
		if !ok {
			return err
		}
		if encErr := enc.Encode(dto.Rejection{Error: rejection.Error(), Reason: string(rejection.Reason)}); encErr != nil {
			return encErr
		}
		return fmt.Errorf("%w: %s", ErrStayRejected, rejection.Reason)
	}
	return enc.Encode(dto.MapQuote(res))
}

func (s quoteSnapshot) request(today time.Time, currency string) (eligibility.Request, error) {
	candidate, err := s.DateRange.Domain()
	if err != nil {
		return eligibility.Request{}, fmt.Errorf("dateRange: %w", err)
	}
	price, err := money.FromDecimal(s.Listing.Price, strings.ToUpper(currency))
	if err != nil {
		return eligibility.Request{}, fmt.Errorf("listing price: %w", err)
	}
	windows, err := s.Listing.Metadata.Windows()
	if err != nil {
		return eligibility.Request{}, fmt.Errorf("listing availability: %w", err)
	}

	existing := make([]*domainbooking.Booking, 0, len(s.Bookings))
	for i, b := range s.Bookings {
		period, err := b.DateRange.Domain()
		if err != nil {
			return eligibility.Request{}, fmt.Errorf("booking %d: %w", i+1, err)
		}
		status, err := domainbooking.ParseStatus(b.Status)
		if err != nil {
			return eligibility.Request{}, fmt.Errorf("booking %d: %w", i+1, err)
		}
		id := b.ID
		if id == "" {
			id = fmt.Sprintf("snapshot-%d", i+1)
		}
		existing = append(existing, &domainbooking.Booking{
			ID:     domainbooking.BookingID(id),
			Range:  period,
			Status: status,
		})
	}

	return eligibility.Request{
		Candidate: candidate,
		Today:     today,
		Listing: eligibility.Snapshot{
			Windows:       windows,
			PricePerNight: price,
			Discounts:     s.Listing.Metadata.Discounts(),
		},
		Existing: existing,
	}, nil
}
