package conversationRepo

import (
	"context"
	"time"

	"tidybook/models"
)

// ConversationRepository persists conversations and their append-only message
// transcripts.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error) // (nil, nil) when absent
	Create(ctx context.Context, conv *models.Conversation) error
	// UpdateMemory replaces the whole memory blob (replace-on-write).
	UpdateMemory(ctx context.Context, id string, mem models.Memory) error
	// UpdateContact merges non-empty denormalized contact fields.
	UpdateContact(ctx context.Context, id string, fields map[string]string) error
	Touch(ctx context.Context, id string, at time.Time) error
	MarkLeadCaptured(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Conversation, error)

	AppendMessage(ctx context.Context, msg *models.Message) error
	// GetMessages returns the transcript in order; internal audit messages are
	// skipped unless includeInternal is set.
	GetMessages(ctx context.Context, conversationID string, includeInternal bool) ([]models.Message, error)
	CountNonInternal(ctx context.Context, conversationID string) (int, error)
}
