package models

import "time"

// Conversation statuses.
const (
	ConversationOpen   = "open"
	ConversationClosed = "closed"
)

// Conversation is one visitor chat session. Contact details are denormalized
// onto the conversation as they are captured, alongside the structured memory
// blob, so lead exports never have to replay transcripts.
type Conversation struct {
	ID        string `bson:"id" json:"id"`
	VisitorID string `bson:"visitor_id,omitempty" json:"visitorId,omitempty"`
	Status    string `bson:"status" json:"status"`
	PageURL   string `bson:"page_url,omitempty" json:"pageUrl,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	VisitorName  string `bson:"visitor_name,omitempty" json:"visitorName,omitempty"`
	VisitorPhone string `bson:"visitor_phone,omitempty" json:"visitorPhone,omitempty"`
	VisitorEmail string `bson:"visitor_email,omitempty" json:"visitorEmail,omitempty"`
	VisitorAddr  string `bson:"visitor_address,omitempty" json:"visitorAddress,omitempty"`
	VisitorZip   string `bson:"visitor_zipcode,omitempty" json:"visitorZipcode,omitempty"`

	Memory Memory `bson:"memory" json:"memory"`

	LeadCaptured  bool      `bson:"lead_captured" json:"leadCaptured"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	LastMessageAt time.Time `bson:"last_message_at" json:"lastMessageAt"`
}

// HasContact reports whether enough contact data exists to count this
// conversation as a captured lead: a name plus a way to reach them.
func (c *Conversation) HasContact() bool {
	name := c.VisitorName != "" || c.Memory.Get(FieldName) != ""
	reach := c.VisitorPhone != "" || c.Memory.Get(FieldPhone) != "" ||
		c.VisitorEmail != "" || c.Memory.Get(FieldEmail) != ""
	return name && reach
}
