package models

// Service is one bookable catalog entry. MinUnits/MaxUnits describe the
// numeric range a service covers (e.g. a "5-7 seater" sofa package), used by
// the numeric token matcher in search.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Description     string  `bson:"description,omitempty" json:"description,omitempty"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"duration_minutes" json:"durationMinutes"`
	MinUnits        int     `bson:"min_units,omitempty" json:"minUnits,omitempty"`
	MaxUnits        int     `bson:"max_units,omitempty" json:"maxUnits,omitempty"`
	Active          bool    `bson:"active" json:"active"`
}

// FAQ is a published question/answer pair searchable from chat.
type FAQ struct {
	ID       string `bson:"id" json:"id"`
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
	Active   bool   `bson:"active" json:"active"`
}

// BusinessHours holds one weekday's open window. Times are "15:04" strings in
// the business timezone; a closed day has Open == "".
type BusinessHours struct {
	Weekday int    `bson:"weekday" json:"weekday"` // 0 = Sunday
	Open    string `bson:"open" json:"open"`
	Close   string `bson:"close" json:"close"`
}

// AIProviderSettings is one provider's credentials and model selection.
type AIProviderSettings struct {
	Enabled bool   `bson:"enabled" json:"enabled"`
	APIKey  string `bson:"api_key" json:"apiKey"`
	Model   string `bson:"model" json:"model"`
	BaseURL string `bson:"base_url,omitempty" json:"baseUrl,omitempty"`
}

// CalendarSettings configures the external calendar integration.
type CalendarSettings struct {
	Enabled    bool   `bson:"enabled" json:"enabled"`
	APIKey     string `bson:"api_key" json:"apiKey"`
	CalendarID string `bson:"calendar_id" json:"calendarId"`
	LocationID string `bson:"location_id,omitempty" json:"locationId,omitempty"`
	Timezone   string `bson:"timezone" json:"timezone"`
}

// IntegrationSettings is the admin-managed integration document: which AI
// provider is active, per-provider credentials, calendar credentials, and the
// chat kill switch plus page exclusion rules.
type IntegrationSettings struct {
	ChatEnabled    bool                          `bson:"chat_enabled" json:"chatEnabled"`
	ActiveProvider string                        `bson:"active_provider" json:"activeProvider"`
	Providers      map[string]AIProviderSettings `bson:"providers" json:"providers"`
	Calendar       CalendarSettings              `bson:"calendar" json:"calendar"`
	ExcludedPages  []string                      `bson:"excluded_pages,omitempty" json:"excludedPages,omitempty"`
	CompanyProfile string                        `bson:"company_profile,omitempty" json:"companyProfile,omitempty"`
	Timezone       string                        `bson:"timezone" json:"timezone"`
}
