package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	listingapp "airbrb/internal/app/handlers/listings"
	"airbrb/internal/app/queries"
)

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// publishRequest accepts the window list or the single-window fields.
type publishRequest struct {
	Availability      []dto.DateRange `json:"availability"`
	AvailabilityStart string          `json:"availabilityStart"`
	AvailabilityEnd   string          `json:"availabilityEnd"`
}

// List serves the public catalog, or the caller's own listings with mine=true.
func (h ListingHandler) List(c *gin.Context) {
	query := listingapp.ListListingsQuery{
		ViewerID:    viewerID(c),
		Mine:        parseBool(c.Query("mine")),
		Query:       strings.TrimSpace(c.Query("q")),
		BedroomsMin: parseInt(c.Query("bedroomsMin")),
		BedroomsMax: parseInt(c.Query("bedroomsMax")),
		PriceMin:    parseFloat(c.Query("priceMin")),
		PriceMax:    parseFloat(c.Query("priceMax")),
		CheckIn:     c.Query("checkIn"),
		CheckOut:    c.Query("checkOut"),
		Sort:        c.Query("sort"),
		Descending:  strings.EqualFold(c.Query("order"), "desc"),
		Limit:       parseInt(c.Query("limit")),
		Offset:      parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.ListListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ViewerID: viewerID(c), ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	var input dto.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateListingCommand{HostID: viewerID(c), Input: input}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	var input dto.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.UpdateListingCommand{HostID: viewerID(c), ListingID: c.Param("id"), Input: input}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	cmd := listingapp.DeleteListingCommand{HostID: viewerID(c), ListingID: c.Param("id")}
	if _, err := commands.Dispatch[listingapp.DeleteListingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.PublishListingCommand{
		HostID:            viewerID(c),
		ListingID:         c.Param("id"),
		Availability:      req.Availability,
		AvailabilityStart: req.AvailabilityStart,
		AvailabilityEnd:   req.AvailabilityEnd,
	}
	result, err := commands.Dispatch[listingapp.PublishListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Unpublish(c *gin.Context) {
	cmd := listingapp.UnpublishListingCommand{HostID: viewerID(c), ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.UnpublishListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}

var _ ListingHTTP = ListingHandler{}
