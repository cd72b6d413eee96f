package models

import "time"

// Message roles. Tool-call records and orchestrator audit notes are persisted
// as internal messages and never leave the backend.
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// MessageMeta carries the tool-call audit trail attached to internal
// messages.
type MessageMeta struct {
	Internal   bool   `bson:"internal" json:"internal"`
	ToolName   string `bson:"tool_name,omitempty" json:"toolName,omitempty"`
	ToolArgs   string `bson:"tool_args,omitempty" json:"toolArgs,omitempty"`
	ToolCallID string `bson:"tool_call_id,omitempty" json:"toolCallId,omitempty"`
	ToolResult string `bson:"tool_result,omitempty" json:"toolResult,omitempty"`
}

// Message is one transcript entry, append-only per conversation.
type Message struct {
	ID             string       `bson:"id" json:"id"`
	ConversationID string       `bson:"conversation_id" json:"conversationId"`
	Role           string       `bson:"role" json:"role"`
	Content        string       `bson:"content" json:"content"`
	Meta           *MessageMeta `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"createdAt"`
}
