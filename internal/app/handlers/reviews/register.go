package reviews

import (
	"airbrb/internal/app/commands"
	"airbrb/internal/app/dto"
	"airbrb/internal/app/queries"
)

func RegisterCommands(bus *commands.InMemoryBus, submit *SubmitReviewHandler) {
	commands.RegisterHandler[SubmitReviewCommand, *dto.Review](bus, submit)
}

func RegisterQueries(bus *queries.InMemoryBus, list *ListHandler) {
	queries.RegisterHandler[ListListingReviewsQuery, dto.ReviewCollection](bus, list)
}
