package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	reviewapp "airbrb/internal/app/handlers/reviews"
	"airbrb/internal/app/queries"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// List is public for published listings. ?rating=N keeps N-star reviews.
func (h ReviewHandler) List(c *gin.Context) {
	query := reviewapp.ListListingReviewsQuery{
		ViewerID:  viewerID(c),
		ListingID: c.Param("id"),
		Rating:    parseInt(c.Query("rating")),
		Limit:     parseInt(c.Query("limit")),
		Offset:    parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Submit creates or replaces the caller's review of one of their bookings.
func (h ReviewHandler) Submit(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reviewapp.SubmitReviewCommand{
		GuestID:   viewerID(c),
		ListingID: c.Param("id"),
		BookingID: c.Param("bookingId"),
		Rating:    req.Review.Rating,
		Comment:   req.Review.Comment,
	}
	result, err := commands.Dispatch[reviewapp.SubmitReviewCommand, *dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewHandler{}
