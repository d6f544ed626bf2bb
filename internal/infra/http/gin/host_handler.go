package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/dto"
	bookingapp "airbrb/internal/app/handlers/booking"
	"airbrb/internal/app/queries"
)

// HostHandler serves the host dashboard: incoming requests and statistics.
type HostHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h HostHandler) Bookings(c *gin.Context) {
	query := bookingapp.ListHostBookingsQuery{
		HostID:    viewerID(c),
		ListingID: c.Query("listingId"),
		Status:    strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostHandler) Stats(c *gin.Context) {
	query := bookingapp.HostStatsQuery{HostID: viewerID(c), ListingID: c.Query("listingId")}
	result, err := queries.Ask[bookingapp.HostStatsQuery, dto.HostStats](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostHTTP = HostHandler{}
