package models

// MemoryVersion is the current schema version of the conversation memory
// blob. Conversations written by older builds carry a lower (or missing)
// version and are brought forward by MigrateMemory on read.
const MemoryVersion = 1

// Canonical collectedData field names. Tool calls and heuristic capture both
// write through these keys.
const (
	FieldZipcode        = "zipcode"
	FieldServiceType    = "serviceType"
	FieldServiceDetails = "serviceDetails"
	FieldPreferredDate  = "preferredDate"
	FieldSelectedDate   = "selectedDate"
	FieldSelectedTime   = "selectedTime"
	FieldName           = "name"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldAddress        = "address"
)

// CartLine is one service in the visitor's cart. Price is always
// UnitPrice * Quantity; re-adding a service merges into the existing line.
type CartLine struct {
	ServiceID   string  `bson:"service_id" json:"serviceId"`
	ServiceName string  `bson:"service_name" json:"serviceName"`
	UnitPrice   float64 `bson:"unit_price" json:"unitPrice"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
}

// SuggestedDay is one day of availability shown to the visitor, remembered so
// a bare follow-up like "10am works" can be resolved on the next turn.
type SuggestedDay struct {
	Date  string   `bson:"date" json:"date"`
	Slots []string `bson:"slots" json:"slots"`
}

// Memory is the structured working state of one conversation. It is persisted
// as a whole (replace-on-write) at the end of every turn.
type Memory struct {
	Version        int               `bson:"version" json:"version"`
	CollectedData  map[string]string `bson:"collected_data" json:"collectedData"`
	CompletedSteps []string          `bson:"completed_steps" json:"completedSteps"`
	Cart           []CartLine        `bson:"cart" json:"cart"`

	LastSuggestedOptions []SuggestedDay `bson:"last_suggested_options,omitempty" json:"lastSuggestedOptions,omitempty"`
	LastSuggestedDate    string         `bson:"last_suggested_date,omitempty" json:"lastSuggestedDate,omitempty"`
	LastSuggestedSlots   []string       `bson:"last_suggested_slots,omitempty" json:"lastSuggestedSlots,omitempty"`

	// LastOfferedService is the service id the assistant most recently offered
	// or added, so a bare "yes" can be tied back to it.
	LastOfferedService string `bson:"last_offered_service,omitempty" json:"lastOfferedService,omitempty"`

	// LastAutoAdd dedupes cart additions within a single visitor message:
	// "<visitorMessageId>|<serviceId>".
	LastAutoAdd string `bson:"last_auto_add,omitempty" json:"lastAutoAdd,omitempty"`

	Language string `bson:"language,omitempty" json:"language,omitempty"`
}

// NewMemory returns an empty memory at the current schema version.
func NewMemory() Memory {
	return Memory{
		Version:        MemoryVersion,
		CollectedData:  map[string]string{},
		CompletedSteps: []string{},
		Cart:           []CartLine{},
	}
}

// MigrateMemory brings a persisted memory blob forward to the current schema
// version. Version 0 blobs predate the versioned layout; their maps may be
// nil after decoding.
func MigrateMemory(mem Memory) Memory {
	if mem.CollectedData == nil {
		mem.CollectedData = map[string]string{}
	}
	if mem.CompletedSteps == nil {
		mem.CompletedSteps = []string{}
	}
	if mem.Cart == nil {
		mem.Cart = []CartLine{}
	}
	mem.Version = MemoryVersion
	return mem
}

// Get returns a collectedData value, or "" when unset.
func (m *Memory) Get(key string) string {
	return m.CollectedData[key]
}

// Set records a collectedData value. Merge-only: empty values are ignored so
// a sloppy tool call can never clear data the visitor already provided.
func (m *Memory) Set(key, value string) {
	if key == "" || value == "" {
		return
	}
	if m.CollectedData == nil {
		m.CollectedData = map[string]string{}
	}
	m.CollectedData[key] = value
}

// CompleteStep marks an intake step done, idempotently.
func (m *Memory) CompleteStep(step string) {
	for _, s := range m.CompletedSteps {
		if s == step {
			return
		}
	}
	m.CompletedSteps = append(m.CompletedSteps, step)
}

// CartTotal is the sum of line prices.
func (m *Memory) CartTotal() float64 {
	total := 0.0
	for _, line := range m.Cart {
		total += line.Price
	}
	return total
}
