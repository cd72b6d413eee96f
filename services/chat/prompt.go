package chat

import (
	"fmt"
	"strings"

	"tidybook/models"
	"tidybook/services/i18n"
)

var objectiveAskKey = map[string]string{
	ObjectiveZipcode:        "ask_zipcode",
	ObjectiveServiceType:    "ask_service",
	ObjectiveServiceDetails: "ask_service_details",
	ObjectiveDate:           "ask_date",
	ObjectiveName:           "ask_name",
	ObjectivePhone:          "ask_phone",
	ObjectiveAddress:        "ask_address",
}

// CanonicalQuestion is the localized fallback question for an intake
// objective, appended when the model's reply drifts off the protocol.
func CanonicalQuestion(lang, objective string) string {
	key, ok := objectiveAskKey[objective]
	if !ok {
		return ""
	}
	return i18n.T(lang, key)
}

var objectiveLabels = map[string]string{
	ObjectiveZipcode:        "the visitor's ZIP code (skipped once a full address is known)",
	ObjectiveServiceType:    "which service they want",
	ObjectiveServiceDetails: "the service details (size, type, quantity) so the right package can be added to the cart",
	ObjectiveDate:           "a confirmed date AND time from real availability",
	ObjectiveName:           "their name",
	ObjectivePhone:          "their phone number",
	ObjectiveAddress:        "the service address",
}

func languageName(lang string) string {
	switch i18n.Normalize(lang) {
	case i18n.LangPT:
		return "Brazilian Portuguese"
	case i18n.LangES:
		return "Spanish"
	default:
		return "English"
	}
}

// BuildSystemPrompt assembles the per-turn system instruction: persona and
// company profile, the intake protocol with live completion state, tool usage
// rules, and an escalating directive when the same objective keeps repeating.
func BuildSystemPrompt(settings *models.IntegrationSettings, conv *models.Conversation, mem *models.Memory, objective string, repeats int, lang string) string {
	var b strings.Builder

	b.WriteString("You are a friendly booking assistant for a home cleaning company, chatting with a website visitor.\n")
	if settings != nil && settings.CompanyProfile != "" {
		b.WriteString("\nAbout the company:\n")
		b.WriteString(settings.CompanyProfile)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nAlways reply in %s. Keep replies short and conversational, at most a few sentences.\n", languageName(lang))

	b.WriteString(`
Rules:
- Use the tools for every fact: list_services for offerings and prices, search_faqs for policy questions, suggest_booking_dates for availability. Never invent services, prices or time slots.
- When the visitor provides intake data (ZIP code, dates, details), record it with update_memory. When they provide contact details, record them with update_contact.
- When the visitor chooses a service, add it to the cart with add_service.
- Only offer dates and times that came from suggest_booking_dates.
- Before booking, summarize the service, date, time and details, and ask the visitor to explicitly confirm. Only after their explicit yes, call create_booking.
- Never say a booking is confirmed unless create_booking returned success in this conversation.
- If a tool reports a failure, relay its userMessage and keep helping.
`)

	b.WriteString("\nBooking checklist, in order:\n")
	for _, id := range objectiveOrder {
		status := "pending"
		if IsObjectiveComplete(id, conv, mem) {
			status = "done"
		}
		fmt.Fprintf(&b, "- %s [%s]\n", objectiveLabels[id], status)
	}

	if len(mem.Cart) > 0 {
		b.WriteString("\nCurrent cart:\n")
		for _, line := range mem.Cart {
			fmt.Fprintf(&b, "- %s x%d ($%.2f)\n", line.ServiceName, line.Quantity, line.Price)
		}
		fmt.Fprintf(&b, "Total: $%.2f\n", mem.CartTotal())
	}
	if len(mem.CollectedData) > 0 {
		b.WriteString("\nAlready collected:\n")
		for _, key := range []string{models.FieldZipcode, models.FieldServiceType, models.FieldServiceDetails,
			models.FieldPreferredDate, models.FieldSelectedDate, models.FieldSelectedTime,
			models.FieldName, models.FieldPhone, models.FieldEmail, models.FieldAddress} {
			if v := mem.Get(key); v != "" {
				fmt.Fprintf(&b, "- %s: %s\n", key, v)
			}
		}
	}

	if objective != "" {
		fmt.Fprintf(&b, "\nNext required step: ask for %s. Answer the visitor's question first if they asked one, then steer back to this step.\n", objectiveLabels[objective])
		switch {
		case repeats >= 3:
			fmt.Fprintf(&b, "CRITICAL: you have asked for this %d times without collecting it. Your reply MUST end with exactly this question: %q\n", repeats, CanonicalQuestion(lang, objective))
		case repeats >= 1:
			b.WriteString("You already asked for this and did not get it. Ask again, directly and politely, and do not move on until it is answered.\n")
		}
	} else {
		b.WriteString("\nAll booking details are collected. Summarize the booking and ask for the visitor's explicit confirmation, then call create_booking.\n")
	}

	return b.String()
}
