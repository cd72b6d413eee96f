package chat

import (
	"time"

	catalogRepo "tidybook/database/repository/catalog"
	conversationRepo "tidybook/database/repository/conversation"
	"tidybook/models"
	"tidybook/services/ai"
	"tidybook/services/events"
	"tidybook/services/notification"
	"tidybook/services/tools"
)

// TurnError is a refused chat turn, mapped by the handler onto an HTTP
// status.
type TurnError struct {
	Status  int
	Code    string
	Message string
}

func (e *TurnError) Error() string {
	return e.Code + ": " + e.Message
}

// Options are the chat service's tunables, sourced from config.
type Options struct {
	RatePerMinute      int
	RateBurst          int
	MaxVisitorMessages int
}

// Service orchestrates one chat turn end to end: persistence, deterministic
// capture, the model tool loop, and the post-model safety nets. All
// collaborators are injected; the service holds no globals beyond the logger.
type Service struct {
	conversations conversationRepo.ConversationRepository
	catalog       catalogRepo.CatalogRepository
	dispatcher    *tools.Dispatcher
	hub           *events.Hub
	notifier      notification.Notifier
	limiter       *turnLimiterStore

	maxVisitorMessages int

	// Injection seams for tests.
	resolveProvider func(*models.IntegrationSettings) (ai.Provider, error)
	now             func() time.Time
}

func NewService(
	conversations conversationRepo.ConversationRepository,
	catalog catalogRepo.CatalogRepository,
	dispatcher *tools.Dispatcher,
	hub *events.Hub,
	notifier notification.Notifier,
	opts Options,
) *Service {
	maxMessages := opts.MaxVisitorMessages
	if maxMessages <= 0 {
		maxMessages = 100
	}
	return &Service{
		conversations:      conversations,
		catalog:            catalog,
		dispatcher:         dispatcher,
		hub:                hub,
		notifier:           notifier,
		limiter:            newTurnLimiterStore(opts.RatePerMinute, opts.RateBurst),
		maxVisitorMessages: maxMessages,
		resolveProvider:    ai.Resolve,
		now:                time.Now,
	}
}
