package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbrb/internal/app/dto"
	"airbrb/internal/domain/eligibility"
)

const snapshotTemplate = `{
  "listing": {
    "title": "Beach house",
    "address": "1 Beach Rd",
    "price": 150,
    "metadata": {
      "availabilityStart": "2024-06-01",
      "availabilityEnd": "2024-12-31",
      "discountsEnabled": true,
      "customDiscounts": [{"minNights": 7, "discount": 10}]
    }
  },
  "bookings": [
    {"dateRange": {"start": "2024-06-10", "end": "2024-06-15"}, "status": "accepted"},
    {"dateRange": {"start": "2024-07-01", "end": "2024-07-05"}, "status": "declined"}
  ],
  "dateRange": {"start": "START", "end": "END"}
}`

func snapshot(start, end string) *strings.Reader {
	return strings.NewReader(strings.NewReplacer("START", start, "END", end).Replace(snapshotTemplate))
}

var quoteToday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestRunQuotePricesEligibleStay(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuote(snapshot("2024-06-15", "2024-06-25"), &out, quoteToday, "usd"))

	var quote dto.Quote
	require.NoError(t, json.Unmarshal(out.Bytes(), &quote))
	assert.Equal(t, 10, quote.Nights)
	assert.Equal(t, 1500.0, quote.BasePrice)
	assert.Equal(t, 10.0, quote.DiscountPercent)
	assert.Equal(t, 1350.0, quote.TotalPrice)
	assert.Equal(t, "USD", quote.Currency)
}

func TestRunQuoteReportsRejection(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		reason     eligibility.Reason
	}{
		{"missing dates", "", "2024-06-20", eligibility.ReasonMissingDates},
		{"inverted", "2024-06-20", "2024-06-18", eligibility.ReasonInvertedOrEqualRange},
		{"past", "2024-05-30", "2024-06-03", eligibility.ReasonPastCheckIn},
		{"outside window", "2024-12-28", "2025-01-02", eligibility.ReasonOutsideAvailabilityWindow},
		{"overlap", "2024-06-12", "2024-06-20", eligibility.ReasonOverlapsExistingBooking},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runQuote(snapshot(tc.start, tc.end), &out, quoteToday, "USD")
			require.ErrorIs(t, err, ErrStayRejected)

			var rejection dto.Rejection
			require.NoError(t, json.Unmarshal(out.Bytes(), &rejection))
			assert.Equal(t, string(tc.reason), rejection.Reason)
			assert.NotEmpty(t, rejection.Error)
		})
	}
}

func TestRunQuoteIgnoresDeclinedBookings(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runQuote(snapshot("2024-07-02", "2024-07-04"), &out, quoteToday, "USD"))
}

func TestRunQuoteRejectsMalformedSnapshot(t *testing.T) {
	err := runQuote(strings.NewReader(`{"listing":`), &bytes.Buffer{}, quoteToday, "USD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStayRejected)

	err = runQuote(snapshot("2024-06-15", "not-a-date"), &bytes.Buffer{}, quoteToday, "USD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStayRejected)
}

func TestResolveToday(t *testing.T) {
	day, err := quoteOptions{today: "2024-03-09"}.resolveToday(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), day)

	// 23:30 UTC is already the next day in Auckland.
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	day, err = quoteOptions{timezone: "Pacific/Auckland"}.resolveToday(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), day)

	_, err = quoteOptions{timezone: "Mars/Olympus"}.resolveToday(now)
	assert.Error(t, err)
}

func TestQuoteCommandReadsStdin(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(snapshot("2024-06-15", "2024-06-18"))
	root.SetOut(&out)
	root.SetArgs([]string{"quote", "--today", "2024-06-01"})
	require.NoError(t, root.Execute())

	var quote dto.Quote
	require.NoError(t, json.Unmarshal(out.Bytes(), &quote))
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, 450.0, quote.TotalPrice)
}
