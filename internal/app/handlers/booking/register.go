package booking

import (
	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	"airbrb/internal/app/queries"
)

func RegisterCommands(bus *commands.InMemoryBus, request *RequestBookingHandler, decisions *DecisionHandler) {
	commands.RegisterHandler[RequestBookingCommand, *dto.Booking](bus, request)
	commands.RegisterHandler[AcceptBookingCommand, *dto.Booking](bus, commands.HandlerFunc[AcceptBookingCommand, *dto.Booking](decisions.Accept))
	commands.RegisterHandler[DeclineBookingCommand, *dto.Booking](bus, commands.HandlerFunc[DeclineBookingCommand, *dto.Booking](decisions.Decline))
}

func RegisterQueries(bus *queries.InMemoryBus, quote *QuoteBookingHandler, lists *ListHandlers) {
	queries.RegisterHandler[QuoteBookingQuery, dto.Quote](bus, quote)
	queries.RegisterHandler[ListGuestBookingsQuery, dto.BookingCollection](bus, queries.HandlerFunc[ListGuestBookingsQuery, dto.BookingCollection](lists.Guest))
	queries.RegisterHandler[ListHostBookingsQuery, dto.BookingCollection](bus, queries.HandlerFunc[ListHostBookingsQuery, dto.BookingCollection](lists.Host))
	queries.RegisterHandler[HostStatsQuery, dto.HostStats](bus, queries.HandlerFunc[HostStatsQuery, dto.HostStats](lists.Stats))
}
