package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	bookingapp "airbrb/internal/app/handlers/booking"
	"airbrb/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Quote prices a stay without booking it. Anonymous visitors may quote.
func (h BookingHandler) Quote(c *gin.Context) {
	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	query := bookingapp.QuoteBookingQuery{
		GuestID:   viewerID(c),
		ListingID: c.Param("id"),
		CheckIn:   req.DateRange.Start,
		CheckOut:  req.DateRange.End,
	}
	result, err := queries.Ask[bookingapp.QuoteBookingQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		GuestID:         viewerID(c),
		ListingID:       c.Param("id"),
		CheckIn:         req.DateRange.Start,
		CheckOut:        req.DateRange.End,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Mine lists the caller's requests as a guest, optionally for one listing.
func (h BookingHandler) Mine(c *gin.Context) {
	query := bookingapp.ListGuestBookingsQuery{GuestID: viewerID(c), ListingID: c.Query("listingId")}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Accept(c *gin.Context) {
	cmd := bookingapp.AcceptBookingCommand{HostID: viewerID(c), BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.AcceptBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Decline(c *gin.Context) {
	var req dto.DeclineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.DeclineBookingCommand{
		HostID:    viewerID(c),
		BookingID: c.Param("id"),
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.DeclineBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
