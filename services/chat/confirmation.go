package chat

import (
	"regexp"
	"strings"
)

// Assistant prompt kinds recognized by the reply classifier.
const (
	PromptService = "service"
	PromptBooking = "booking"
)

// Fast deterministic classifiers for short confirmation replies. These run
// on every turn before the model does, so they are regex families, not model
// calls.

var affirmativeRe = regexp.MustCompile(`(?i)^\W*(?:yes|yeah|yep|yup|sure|ok|okay|sounds? good|perfect|correct|confirm(?:ed)?|that works|let'?s do it|go ahead|please do|sim|claro|pode ser|confirmo|isso|com certeza|s[ií]|dale|perfecto|de acuerdo|est[aá] bien)\W*$`)

var negativeRe = regexp.MustCompile(`(?i)\b(?:no|nope|not|don'?t|cancel|nah|n[aã]o|cancelar|tampoco|nunca)\b`)

var bookingPromptRe = regexp.MustCompile(`(?i)(?:confirm (?:your|the|this) (?:booking|appointment)|shall i (?:book|schedule|confirm)|should i (?:book|go ahead and book)|do you want me to (?:book|schedule|confirm)|ready to (?:book|confirm)|can i (?:book|confirm)|want me to lock (?:that|it) in|confirmo (?:sua|a) reserva|posso (?:confirmar|agendar)|¿(?:confirmo|agendo|reservo)|quieres que (?:confirme|reserve|agende))`)

var servicePromptRe = regexp.MustCompile(`(?i)(?:would you like to (?:add|book|go with)|should i add|do you want (?:the|this|that) (?:service|package|one)|does (?:that|this|.{1,40}) sound (?:right|good)\??|sound right\??|is that the (?:one|service)|quer (?:adicionar|esse)|posso adicionar|¿(?:quieres|deseas) (?:agregar|este))`)

// IsAffirmative reports whether the message is a short positive reply.
func IsAffirmative(message string) bool {
	trimmed := strings.TrimSpace(message)
	if negativeRe.MatchString(trimmed) {
		return false
	}
	return affirmativeRe.MatchString(trimmed)
}

// IsNegative reports whether the message reads as a refusal.
func IsNegative(message string) bool {
	return negativeRe.MatchString(strings.TrimSpace(message))
}

// ClassifyPrompt decides what the previous assistant message was asking the
// visitor to confirm. Booking prompts win over service prompts when both
// pattern families match, since booking confirmation is the later protocol
// step.
func ClassifyPrompt(previousAssistant string) string {
	if previousAssistant == "" {
		return ""
	}
	if bookingPromptRe.MatchString(previousAssistant) {
		return PromptBooking
	}
	if servicePromptRe.MatchString(previousAssistant) {
		return PromptService
	}
	return ""
}
