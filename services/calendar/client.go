package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tidybook/models"
	"tidybook/utils"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://services.leadconnectorhq.com"

// Package-level HTTP client for calendar calls.
var calendarHTTPClient = &http.Client{Timeout: 10 * time.Second}

// HTTPClient talks to a LeadConnector-compatible calendar API.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPClient creates a calendar client. An empty baseURL uses the hosted
// endpoint.
func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{BaseURL: baseURL, client: calendarHTTPClient}
}

type freeSlotsResponse map[string]struct {
	Slots []string `json:"slots"`
}

// GetFreeSlots fetches the calendar's free slots between two dates and groups
// them by local date with "15:04" start times.
func (c *HTTPClient) GetFreeSlots(ctx context.Context, cfg models.CalendarSettings, startDate, endDate string) (FreeSlots, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	end = end.AddDate(0, 0, 1) // inclusive range

	q := url.Values{}
	q.Set("startDate", fmt.Sprintf("%d", start.UnixMilli()))
	q.Set("endDate", fmt.Sprintf("%d", end.UnixMilli()))
	q.Set("timezone", cfg.Timezone)

	endpoint := fmt.Sprintf("%s/calendars/%s/free-slots?%s", c.BaseURL, url.PathEscape(cfg.CalendarID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, cfg)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar free-slots request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar free-slots returned status %d", resp.StatusCode)
	}

	var body freeSlotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode free-slots response: %w", err)
	}

	free := FreeSlots{}
	for _, day := range body {
		for _, iso := range day.Slots {
			t, err := time.Parse(time.RFC3339, iso)
			if err != nil {
				continue
			}
			local := t.In(loc)
			date := local.Format("2006-01-02")
			free[date] = append(free[date], local.Format("15:04"))
		}
	}
	return free, nil
}

type appointmentRequest struct {
	CalendarID        string `json:"calendarId"`
	LocationID        string `json:"locationId,omitempty"`
	ContactID         string `json:"contactId"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	Title             string `json:"title"`
	AppointmentStatus string `json:"appointmentStatus"`
}

type appointmentResponse struct {
	ID string `json:"id"`
}

// CreateAppointment books the slot in the external calendar and returns the
// remote event id. The booking's contact must already exist remotely.
func (c *HTTPClient) CreateAppointment(ctx context.Context, cfg models.CalendarSettings, booking *models.Booking) (string, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", booking.BookingDate+" "+booking.StartTime, loc)
	if err != nil {
		return "", fmt.Errorf("invalid booking start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", booking.BookingDate+" "+booking.EndTime, loc)
	if err != nil {
		return "", fmt.Errorf("invalid booking end: %w", err)
	}

	contactID, err := c.GetOrCreateContact(ctx, cfg, booking.CustomerName, booking.CustomerPhone, booking.CustomerEmail)
	if err != nil {
		return "", err
	}

	title := "Service booking"
	if len(booking.Services) > 0 {
		title = booking.Services[0].ServiceName
	}
	payload := appointmentRequest{
		CalendarID:        cfg.CalendarID,
		LocationID:        cfg.LocationID,
		ContactID:         contactID,
		StartTime:         start.Format(time.RFC3339),
		EndTime:           end.Format(time.RFC3339),
		Title:             title,
		AppointmentStatus: "confirmed",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/calendars/events/appointments", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	c.authorize(req, cfg)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar appointment request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar appointment returned status %d", resp.StatusCode)
	}

	var body appointmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode appointment response: %w", err)
	}
	utils.GetLogger().Info("external calendar appointment created",
		zap.String("bookingId", booking.ID), zap.String("eventId", body.ID))
	return body.ID, nil
}

type contactRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	LocationID string `json:"locationId,omitempty"`
}

type contactResponse struct {
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

// GetOrCreateContact upserts the visitor as a calendar contact.
func (c *HTTPClient) GetOrCreateContact(ctx context.Context, cfg models.CalendarSettings, name, phone, email string) (string, error) {
	raw, err := json.Marshal(contactRequest{Name: name, Phone: phone, Email: email, LocationID: cfg.LocationID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/contacts/upsert", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	c.authorize(req, cfg)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar contact request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar contact returned status %d", resp.StatusCode)
	}

	var body contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode contact response: %w", err)
	}
	return body.Contact.ID, nil
}

func (c *HTTPClient) authorize(req *http.Request, cfg models.CalendarSettings) {
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Version", "2021-04-15")
}
