package i18n

import "strings"

// Supported locales. Anything unrecognized falls back to English.
const (
	LangEN = "en"
	LangPT = "pt-BR"
	LangES = "es"
)

// Normalize maps a free-form language hint ("pt", "pt-br", "es-MX") onto one
// of the supported locales.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(l, "pt"):
		return LangPT
	case strings.HasPrefix(l, "es"):
		return LangES
	default:
		return LangEN
	}
}

var messages = map[string]map[string]string{
	"booking_failed": {
		LangEN: "I'm sorry, something went wrong while creating your booking. Please try again in a moment.",
		LangPT: "Desculpe, algo deu errado ao criar sua reserva. Por favor, tente novamente em instantes.",
		LangES: "Lo siento, algo salió mal al crear tu reserva. Por favor, inténtalo de nuevo en un momento.",
	},
	"slot_taken": {
		LangEN: "That time was just taken by another customer. Here are some other options:",
		LangPT: "Esse horário acabou de ser reservado por outro cliente. Aqui estão outras opções:",
		LangES: "Ese horario acaba de ser reservado por otro cliente. Aquí tienes otras opciones:",
	},
	"slot_taken_no_alternatives": {
		LangEN: "That time was just taken by another customer. Could you suggest another day that works for you?",
		LangPT: "Esse horário acabou de ser reservado por outro cliente. Poderia sugerir outro dia que funcione para você?",
		LangES: "Ese horario acaba de ser reservado por otro cliente. ¿Podrías sugerir otro día que te funcione?",
	},
	"booking_confirmed": {
		LangEN: "You're all set! Your booking is confirmed for %s at %s. We'll see you then!",
		LangPT: "Tudo certo! Sua reserva está confirmada para %s às %s. Até lá!",
		LangES: "¡Todo listo! Tu reserva está confirmada para el %s a las %s. ¡Nos vemos!",
	},
	"missing_fields": {
		LangEN: "I still need a few details before I can book: %s.",
		LangPT: "Ainda preciso de alguns dados antes de reservar: %s.",
		LangES: "Todavía necesito algunos datos antes de reservar: %s.",
	},
	"chat_unavailable": {
		LangEN: "Our chat assistant is temporarily unavailable. Please try again later or give us a call.",
		LangPT: "Nosso assistente de chat está temporariamente indisponível. Tente novamente mais tarde ou ligue para nós.",
		LangES: "Nuestro asistente de chat no está disponible temporalmente. Inténtalo más tarde o llámanos.",
	},
	"ask_zipcode": {
		LangEN: "Could you share your ZIP code so I can confirm we serve your area?",
		LangPT: "Pode me informar seu CEP para eu confirmar se atendemos sua região?",
		LangES: "¿Podrías compartir tu código postal para confirmar que atendemos tu zona?",
	},
	"ask_service": {
		LangEN: "Which service are you interested in?",
		LangPT: "Qual serviço você procura?",
		LangES: "¿Qué servicio te interesa?",
	},
	"ask_service_details": {
		LangEN: "Could you tell me a bit more about what needs cleaning, like the size or type?",
		LangPT: "Pode me contar um pouco mais sobre o que precisa de limpeza, como o tamanho ou o tipo?",
		LangES: "¿Podrías contarme un poco más sobre lo que necesita limpieza, como el tamaño o el tipo?",
	},
	"ask_date": {
		LangEN: "What day works best for you? I can check our availability.",
		LangPT: "Qual dia é melhor para você? Posso verificar nossa disponibilidade.",
		LangES: "¿Qué día te viene mejor? Puedo consultar nuestra disponibilidad.",
	},
	"ask_name": {
		LangEN: "May I have your name for the booking?",
		LangPT: "Pode me informar seu nome para a reserva?",
		LangES: "¿Me puedes dar tu nombre para la reserva?",
	},
	"ask_phone": {
		LangEN: "What's the best phone number to reach you?",
		LangPT: "Qual é o melhor telefone para falar com você?",
		LangES: "¿Cuál es el mejor teléfono para contactarte?",
	},
	"ask_address": {
		LangEN: "What's the address where we'll be providing the service?",
		LangPT: "Qual é o endereço onde faremos o serviço?",
		LangES: "¿Cuál es la dirección donde haremos el servicio?",
	},
	"rate_limited": {
		LangEN: "You're sending messages a little too quickly. Please wait a moment and try again.",
		LangPT: "Você está enviando mensagens rápido demais. Aguarde um momento e tente novamente.",
		LangES: "Estás enviando mensajes demasiado rápido. Espera un momento e inténtalo de nuevo.",
	},
	"conversation_limit": {
		LangEN: "This conversation has reached its message limit. Please give us a call to continue.",
		LangPT: "Esta conversa atingiu o limite de mensagens. Por favor, ligue para nós para continuar.",
		LangES: "Esta conversación alcanzó su límite de mensajes. Por favor, llámanos para continuar.",
	},
	"fallback_reply": {
		LangEN: "Thanks! Let me help you with your booking.",
		LangPT: "Obrigado! Vou te ajudar com a sua reserva.",
		LangES: "¡Gracias! Déjame ayudarte con tu reserva.",
	},
}

// T returns the message for a key in the given locale, falling back to
// English. Unknown keys return the key itself so a miss is visible in QA
// without crashing a conversation.
func T(lang, key string) string {
	locale := Normalize(lang)
	if byLang, ok := messages[key]; ok {
		if msg, ok := byLang[locale]; ok {
			return msg
		}
		return byLang[LangEN]
	}
	return key
}
