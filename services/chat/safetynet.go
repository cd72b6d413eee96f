package chat

import (
	"regexp"
	"strings"
)

// Success-sounding phrase families per locale. The detection is approximate
// in both directions; the tool-call record is the ground truth it is checked
// against.
var successPhraseRe = regexp.MustCompile(`(?i)(?:you'?re all set|you are all set|all set for|booked (?:you )?for|booking is confirmed|appointment is confirmed|your booking is complete|we'?ll see you (?:on|at)|see you (?:on|then)|scheduled (?:you )?for|tudo certo|sua reserva est[aá] confirmada|reserva confirmada|agendado para|agendei (?:você|voc[eê]) para|nos vemos|todo listo|tu (?:reserva|cita) est[aá] confirmada|cita confirmada|confirmado para|te esperamos)`)

// SoundsLikeBookingSuccess reports whether the assistant reply implies a
// completed booking.
func SoundsLikeBookingSuccess(reply string) bool {
	return successPhraseRe.MatchString(reply)
}

// Per-objective keyword families used to decide whether a reply already asks
// for the pending objective.
var objectiveKeywords = map[string][]string{
	ObjectiveZipcode:        {"zip", "postal", "cep", "código postal", "codigo postal"},
	ObjectiveServiceType:    {"service", "serviço", "servicio", "help you with", "interested in", "looking for"},
	ObjectiveServiceDetails: {"detail", "size", "type", "how many", "detalhe", "tamanho", "quantos", "detalle", "tamaño", "cuántos", "cuantos"},
	ObjectiveDate:           {"date", "day", "time", "schedule", "available", "availability", "when", "dia", "data", "horário", "horario", "hora", "quando", "fecha", "cuándo", "cuando"},
	ObjectiveName:           {"name", "nome", "nombre"},
	ObjectivePhone:          {"phone", "number", "telefone", "teléfono", "telefono", "celular"},
	ObjectiveAddress:        {"address", "endereço", "endereco", "dirección", "direccion"},
}

// AddressesObjective reports whether the reply already covers the pending
// objective, by keyword heuristics per objective.
func AddressesObjective(reply, objective string) bool {
	keywords, known := objectiveKeywords[objective]
	if !known {
		return true
	}
	lower := strings.ToLower(reply)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
