package tools

import (
	"context"
	"encoding/json"

	bookingRepo "tidybook/database/repository/booking"
	catalogRepo "tidybook/database/repository/catalog"
	conversationRepo "tidybook/database/repository/conversation"
	"tidybook/models"
	"tidybook/services/ai"
	"tidybook/services/availability"
	"tidybook/services/calendar"
	"tidybook/services/lease"
	"tidybook/services/notification"
	"tidybook/utils"

	"go.uber.org/zap"
)

// Cache kinds owned by the dispatcher. Catalog mutations call
// Cache.Invalidate with these.
const (
	CacheKindServices = "services"
	CacheKindFAQs     = "faqs"
)

// Deps are the dispatcher's injected collaborators.
type Deps struct {
	Catalog       catalogRepo.CatalogRepository
	Bookings      bookingRepo.BookingRepository
	Conversations conversationRepo.ConversationRepository
	Leases        *lease.Manager
	Availability  *availability.Engine
	Calendar      calendar.Client
	Cache         utils.Cache
	Notifier      notification.Notifier
}

// Turn is the per-request execution context shared by all tool calls of one
// chat turn. Memory mutations accumulate here and are persisted once by the
// orchestrator.
type Turn struct {
	Conv             *models.Conversation
	Mem              *models.Memory
	Settings         *models.IntegrationSettings
	VisitorMessageID string
	// BookingConfirmed is set by the orchestrator when the visitor's message
	// was an affirmative reply to a booking-confirmation prompt (or when the
	// auto-booking safety net is driving the call). create_booking refuses to
	// run without it.
	BookingConfirmed bool
	Lang             string

	// BookingResult is filled by create_booking so the orchestrator can
	// report bookingCompleted and drive the fabrication safety net.
	BookingResult *models.Booking
	BookingFailed bool
	// FailureMessage is the user-facing text of the last failed booking
	// attempt, kept so the orchestrator can surface the real suggestion
	// instead of a generic apology.
	FailureMessage string

	// DominantTool is the last tool executed during the turn. Answer-bearing
	// tools suppress the appended intake question.
	DominantTool string
}

// Dispatcher declares the callable tool surface and executes each tool
// against its storage and calendar collaborators. Every result is
// JSON-serializable; failures come back as data, never as errors, so the
// model loop always has something to reason about.
type Dispatcher struct {
	Deps
}

func NewDispatcher(deps Deps) *Dispatcher {
	return &Dispatcher{Deps: deps}
}

// Definitions returns the tool schemas passed to the model.
func (d *Dispatcher) Definitions() []ai.ToolDef {
	return []ai.ToolDef{
		{
			Name:        "list_services",
			Description: "List the services we offer, optionally filtered by a search query. Use when the visitor asks what we do or looks for a specific service.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Free-text search, e.g. 'sectional couch' or '7 seater sofa'"},
				},
			},
		},
		{
			Name:        "search_faqs",
			Description: "Search the FAQ knowledge base for an answer to the visitor's question.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "add_service",
			Description: "Add a service to the visitor's cart once they have chosen it. Re-adding the same service increases quantity.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"serviceId":   map[string]any{"type": "string"},
					"serviceName": map[string]any{"type": "string", "description": "Used when the exact id is unknown"},
					"quantity":    map[string]any{"type": "integer"},
				},
			},
		},
		{
			Name:        "view_cart",
			Description: "Show the visitor's current cart and total.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "suggest_booking_dates",
			Description: "Suggest available booking dates and times. Use when the visitor asks about availability or proposes a day.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"serviceId":       map[string]any{"type": "string", "description": "Service whose duration defines the slot length"},
					"date":            map[string]any{"type": "string", "description": "Specific date requested, YYYY-MM-DD"},
					"window":          map[string]any{"type": "string", "description": "Relative hint such as 'next_week'"},
					"max_suggestions": map[string]any{"type": "integer", "description": "Days to return, default 3, max 5"},
				},
			},
		},
		{
			Name:        "create_booking",
			Description: "Create the booking. Only call after the visitor has explicitly confirmed the final date, time and details.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date":    map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"time":    map[string]any{"type": "string", "description": "HH:MM, 24h"},
					"name":    map[string]any{"type": "string"},
					"phone":   map[string]any{"type": "string"},
					"email":   map[string]any{"type": "string"},
					"address": map[string]any{"type": "string"},
				},
				"required": []string{"date", "time", "name", "phone", "address"},
			},
		},
		{
			Name:        "update_memory",
			Description: "Record intake data the visitor just provided (zipcode, serviceDetails, preferredDate, ...). Merge-only; never clears existing values.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fields": map[string]any{
						"type":        "object",
						"description": "Map of field name to value",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "update_contact",
			Description: "Record the visitor's contact details as they are provided.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"phone":   map[string]any{"type": "string"},
					"email":   map[string]any{"type": "string"},
					"address": map[string]any{"type": "string"},
					"zipcode": map[string]any{"type": "string"},
				},
			},
		},
	}
}

// Execute runs one tool call. Unknown tools and panics become structured
// failures; nothing propagates to the model loop.
func (d *Dispatcher) Execute(ctx context.Context, turn *Turn, name string, rawArgs string) (result map[string]any) {
	logger := utils.GetLogger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool execution panicked",
				zap.String("tool", name), zap.Any("panic", r))
			result = fail("internal_error", "Something went wrong, please try again.")
		}
	}()

	args := json.RawMessage(rawArgs)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "list_services":
		result = d.listServices(ctx, turn, args)
	case "search_faqs":
		result = d.searchFAQs(ctx, turn, args)
	case "add_service":
		result = d.addService(ctx, turn, args)
	case "view_cart":
		result = d.viewCart(turn)
	case "suggest_booking_dates":
		result = d.suggestBookingDates(ctx, turn, args)
	case "create_booking":
		result = d.createBooking(ctx, turn, args)
	case "update_memory":
		result = d.updateMemory(ctx, turn, args)
	case "update_contact":
		result = d.updateContact(ctx, turn, args)
	default:
		logger.Warn("model requested unknown tool", zap.String("tool", name))
		return fail("unknown_tool", "That action is not available.")
	}

	turn.DominantTool = name
	if name == "create_booking" && turn.BookingFailed {
		if msg, ok := result["userMessage"].(string); ok && msg != "" {
			turn.FailureMessage = msg
		}
	}
	return result
}

func ok(data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	data["success"] = true
	return data
}

func fail(code, userMessage string) map[string]any {
	return map[string]any{
		"success":     false,
		"error":       code,
		"userMessage": userMessage,
	}
}
