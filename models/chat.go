package models

// ChatRequest is the payload of POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message" binding:"required,min=1,max=2000"`
	PageURL        string `json:"pageUrl,omitempty"`
	VisitorID      string `json:"visitorId,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
	VisitorName    string `json:"visitorName,omitempty"`
	VisitorEmail   string `json:"visitorEmail,omitempty"`
	VisitorPhone   string `json:"visitorPhone,omitempty"`
	Language       string `json:"language,omitempty"`
}

// BookingCompleted summarizes a booking made during the turn.
type BookingCompleted struct {
	Value    float64  `json:"value"`
	Services []string `json:"services"`
}

// ChatResponse is the reply of POST /api/chat.
type ChatResponse struct {
	ConversationID   string            `json:"conversationId"`
	Response         string            `json:"response"`
	LeadCaptured     bool              `json:"leadCaptured"`
	BookingCompleted *BookingCompleted `json:"bookingCompleted"`
}

// ChatEvent is broadcast on the in-process event hub whenever a message is
// persisted, for SSE subscribers.
type ChatEvent struct {
	Type           string   `json:"type"`
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message,omitempty"`
}
