package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	bookingapp "airbrb/internal/app/handlers/booking"
	listingapp "airbrb/internal/app/handlers/listings"
	reviewapp "airbrb/internal/app/handlers/reviews"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/middleware"
	appoutbox "airbrb/internal/app/outbox"
	"airbrb/internal/app/queries"
	authsvc "airbrb/internal/app/services/auth"
	"airbrb/internal/app/validation"
	"airbrb/internal/infra/obs"
	"airbrb/internal/infra/security"
	"airbrb/internal/infra/storage/memory"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	box := memory.NewOutbox(nil)
	clock := support.FixedClock(testNow, time.UTC)
	encoder := appoutbox.JSONEventEncoder{}
	validator := validation.New()

	cmdBase := commands.NewInMemoryBus()
	(&listingapp.CommandHandlers{Outbox: box, Encoder: encoder, Clock: clock, Currency: "USD"}).Register(cmdBase)
	bookingapp.RegisterCommands(cmdBase,
		&bookingapp.RequestBookingHandler{Outbox: box, Encoder: encoder, Clock: clock},
		&bookingapp.DecisionHandler{Outbox: box, Encoder: encoder, Clock: clock},
	)
	reviewapp.RegisterCommands(cmdBase, &reviewapp.SubmitReviewHandler{Outbox: box, Encoder: encoder, Clock: clock})
	cmdBus := middleware.ChainCommands(cmdBase,
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(validator),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.OutboxFlush(box, nil),
		middleware.RetryConcurrent(3, time.Millisecond),
		middleware.Transaction(store, nil),
	)

	queryBase := queries.NewInMemoryBus()
	(&listingapp.QueryHandlers{UoWFactory: store}).Register(queryBase)
	bookingapp.RegisterQueries(queryBase,
		&bookingapp.QuoteBookingHandler{UoWFactory: store, Clock: clock},
		&bookingapp.ListHandlers{UoWFactory: store, Clock: clock, Currency: "USD"},
	)
	reviewapp.RegisterQueries(queryBase, &reviewapp.ListHandler{UoWFactory: store})
	queryBus := middleware.ChainQueries(queryBase,
		middleware.QueryAuthorization(middleware.RequireActor{}),
		middleware.QueryValidation(validator),
	)

	authService := &authsvc.Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:    security.TokenGenerator{},
	}
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{Service: authService},
		Listing:        ListingHandler{Commands: cmdBus, Queries: queryBus},
		Booking:        BookingHandler{Commands: cmdBus, Queries: queryBus},
		Host:           HostHandler{Queries: queryBus},
		Review:         ReviewHandler{Commands: cmdBus, Queries: queryBus},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
	})
	return api{t: t, router: router}
}

func (a api) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a api) register(email, name string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: email, Name: name, Password: "password123"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.AuthResponse](a.t, w).Token
}

// publishedListing creates a listing at 150.00 a night with 10% off stays of
// a week or more, bookable through December.
func (a api) publishedListing(token string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/listings", token, dto.ListingInput{
		Title:   "Beach house",
		Address: "1 Beach Rd",
		Price:   150,
		Metadata: dto.ListingMetadata{
			Bedrooms:         []dto.Bedroom{{Type: "queen", Beds: 1}},
			DiscountsEnabled: true,
			CustomDiscounts:  []dto.CustomDiscount{{MinNights: 7, Discount: 10}},
		},
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[dto.Listing](a.t, w).ID

	w = a.do(http.MethodPut, "/api/v1/listings/"+id+"/publish", token, map[string]string{
		"availabilityStart": "2024-06-01",
		"availabilityEnd":   "2024-12-31",
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	assert.True(a.t, decode[dto.Listing](a.t, w).Published)
	return id
}

func stay(start, end string) dto.BookingRequest {
	return dto.BookingRequest{DateRange: dto.DateRange{Start: start, End: end}}
}

func TestAuthLifecycle(t *testing.T) {
	a := newAPI(t)
	token := a.register("alice@example.com", "Alice")

	w := a.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode[dto.User](t, w).Email)

	w = a.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: "ALICE@example.com", Name: "Again", Password: "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[dto.AuthResponse](t, w).Token

	w = a.do(http.MethodPost, "/api/v1/auth/logout", second, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, "/api/v1/auth/me", second, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuoteAndBookingFlow(t *testing.T) {
	a := newAPI(t)
	host := a.register("host@example.com", "Host")
	guest := a.register("guest@example.com", "Guest")
	rival := a.register("rival@example.com", "Rival")
	listing := a.publishedListing(host)

	w := a.do(http.MethodPost, "/api/v1/listings/"+listing+"/quote", "", stay("2024-07-01", "2024-07-11"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[dto.Quote](t, w)
	assert.Equal(t, 10, quote.Nights)
	assert.InDelta(t, 1500.0, quote.BasePrice, 0.001)
	assert.InDelta(t, 10.0, quote.DiscountPercent, 0.001)
	assert.InDelta(t, 1350.0, quote.TotalPrice, 0.001)

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", "", stay("2024-07-01", "2024-07-11"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", guest, stay("2024-07-01", "2024-07-11"), idempotencyHeader, "req-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[dto.Booking](t, w)
	assert.Equal(t, "pending", booking.Status)
	require.NotNil(t, booking.TotalPrice)
	assert.InDelta(t, 1350.0, *booking.TotalPrice, 0.001)

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", guest, stay("2024-07-01", "2024-07-11"), idempotencyHeader, "req-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, booking.ID, decode[dto.Booking](t, w).ID)

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", rival, stay("2024-07-05", "2024-07-08"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "OverlapsExistingBooking", decode[dto.Rejection](t, w).Reason)

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", rival, stay("2024-07-11", "2024-07-13"))
	require.Equal(t, http.StatusCreated, w.Code, "back-to-back stays share the turnover day")

	w = a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", host, stay("2024-08-01", "2024-08-03"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/v1/host/bookings?status=pending", host, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.BookingCollection](t, w).Items, 2)

	w = a.do(http.MethodPut, "/api/v1/bookings/"+booking.ID+"/accept", guest, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPut, "/api/v1/bookings/"+booking.ID+"/accept", host, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "accepted", decode[dto.Booking](t, w).Status)

	w = a.do(http.MethodPut, "/api/v1/bookings/"+booking.ID+"/decline", host, map[string]string{"reason": "changed my mind"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodGet, "/api/v1/bookings", guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[dto.BookingCollection](t, w)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "Beach house", mine.Items[0].ListingTitle)

	w = a.do(http.MethodGet, "/api/v1/host/stats", host, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[dto.HostStats](t, w)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Pending)
	assert.InDelta(t, 1350.0, stats.TotalEarnings, 0.001)
}

func TestRejectionsCarryReason(t *testing.T) {
	a := newAPI(t)
	host := a.register("host@example.com", "Host")
	guest := a.register("guest@example.com", "Guest")
	listing := a.publishedListing(host)

	tests := []struct {
		name   string
		req    dto.BookingRequest
		reason string
	}{
		{"missing dates", stay("", ""), "MissingDates"},
		{"inverted", stay("2024-07-10", "2024-07-01"), "InvertedOrEqualRange"},
		{"same day", stay("2024-07-10", "2024-07-10"), "InvertedOrEqualRange"},
		{"past", stay("2024-05-30", "2024-06-03"), "PastCheckIn"},
		{"outside window", stay("2024-12-30", "2025-01-02"), "OutsideAvailabilityWindow"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/v1/listings/"+listing+"/quote", guest, tc.req)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			rejection := decode[dto.Rejection](t, w)
			assert.Equal(t, tc.reason, rejection.Reason)
			assert.NotEmpty(t, rejection.Error)
		})
	}

	w := a.do(http.MethodPost, "/api/v1/listings/"+listing+"/quote", guest, stay("2024-07-xx", "2024-07-10"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingVisibility(t *testing.T) {
	a := newAPI(t)
	host := a.register("host@example.com", "Host")
	other := a.register("other@example.com", "Other")

	w := a.do(http.MethodPost, "/api/v1/listings", host, dto.ListingInput{Title: "Draft cabin", Address: "2 Hill St", Price: 90})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[dto.Listing](t, w).ID
	published := a.publishedListing(host)

	w = a.do(http.MethodGet, "/api/v1/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	catalog := decode[dto.ListingCollection](t, w)
	require.Equal(t, 1, catalog.Total)
	assert.Equal(t, published, catalog.Items[0].ID)

	w = a.do(http.MethodGet, "/api/v1/listings?mine=true", host, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[dto.ListingCollection](t, w).Total)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/listings/"+draft, other, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/listings/"+draft, host, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/listings/missing", "", nil).Code)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, "/api/v1/listings/"+draft, other, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodDelete, "/api/v1/listings/"+draft, "", nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/v1/listings/"+draft, host, nil).Code)

	w = a.do(http.MethodPut, "/api/v1/listings/"+published+"/publish", host, map[string]string{"availabilityStart": "2024-07-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func review(rating int, comment string) dto.ReviewRequest {
	return dto.ReviewRequest{Review: dto.ReviewInput{Rating: rating, Comment: comment}}
}

func TestReviewFlow(t *testing.T) {
	a := newAPI(t)
	host := a.register("host@example.com", "Host")
	guest := a.register("guest@example.com", "Guest")
	other := a.register("other@example.com", "Other")
	listing := a.publishedListing(host)
	elsewhere := a.publishedListing(host)

	w := a.do(http.MethodPost, "/api/v1/listings/"+listing+"/bookings", guest, stay("2024-07-01", "2024-07-05"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[dto.Booking](t, w).ID
	path := "/api/v1/listings/" + listing + "/reviews/" + booking

	w = a.do(http.MethodPut, path, guest, review(4, "Great"))
	assert.Equal(t, http.StatusConflict, w.Code, "pending bookings cannot be reviewed")

	w = a.do(http.MethodPut, "/api/v1/bookings/"+booking+"/accept", host, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPut, path, "", review(4, "Great")).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPut, path, other, review(4, "Great")).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, path, guest, review(0, "Great")).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, path, guest, review(3, "   ")).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/api/v1/listings/"+elsewhere+"/reviews/"+booking, guest, review(4, "Great")).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/api/v1/listings/"+listing+"/reviews/missing", guest, review(4, "Great")).Code)

	w = a.do(http.MethodPut, path, guest, review(4, "Great"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[dto.Review](t, w)
	assert.Equal(t, booking, first.BookingID)

	w = a.do(http.MethodGet, "/api/v1/listings/"+listing, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rating := decode[dto.Listing](t, w).Rating
	assert.Equal(t, 1, rating.Count)
	assert.InDelta(t, 4.0, rating.Average, 0.001)

	w = a.do(http.MethodPut, path, guest, review(2, "Noisy at night"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, first.ID, decode[dto.Review](t, w).ID, "a second submit revises the review")

	w = a.do(http.MethodGet, "/api/v1/listings/"+listing+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	all := decode[dto.ReviewCollection](t, w)
	require.Len(t, all.Items, 1)
	assert.Equal(t, "Noisy at night", all.Items[0].Comment)
	assert.Equal(t, 1, all.Summary.Count)
	assert.Equal(t, 1, all.Summary.Breakdown[2])
	assert.Equal(t, 0, all.Summary.Breakdown[4])

	w = a.do(http.MethodGet, "/api/v1/listings/"+listing+"/reviews?rating=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fives := decode[dto.ReviewCollection](t, w)
	assert.Empty(t, fives.Items)
	assert.Zero(t, fives.Total)
	assert.Equal(t, 1, fives.Summary.Count)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v1/listings/"+listing+"/reviews?rating=7", "", nil).Code)
}

func TestRequestIDHeaderIsExposed(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(obs.RequestIDHeader))
}
