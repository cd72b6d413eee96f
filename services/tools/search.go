package tools

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"tidybook/models"
)

// Phrase-level synonym pairs applied in both directions before tokenizing.
// These cover the vocabulary gap between how visitors describe furniture and
// how the catalog names services.
var synonymPairs = [][2]string{
	{"sectional", "l shaped"},
	{"couch", "sofa"},
	{"rug", "carpet"},
	{"settee", "sofa"},
	{"mattress", "bed"},
}

// tokenize lower-cases and splits on every non-alphanumeric rune.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// expandQuery returns the query tokens plus the tokens of any synonym of a
// phrase the query contains.
func expandQuery(query string) []string {
	lower := strings.ToLower(query)
	tokens := tokenize(query)
	for _, pair := range synonymPairs {
		if strings.Contains(lower, pair[0]) {
			tokens = append(tokens, tokenize(pair[1])...)
		}
		if strings.Contains(lower, pair[1]) {
			tokens = append(tokens, tokenize(pair[0])...)
		}
	}
	return tokens
}

// scoreText counts query-token overlap against a text's token set. A numeric
// query token like "7" matches when the text contains the digits or when the
// [min,max] unit range brackets the number.
func scoreText(queryTokens []string, text string, minUnits, maxUnits int) int {
	target := map[string]bool{}
	for _, t := range tokenize(text) {
		target[t] = true
	}
	lower := strings.ToLower(text)

	score := 0
	for _, qt := range queryTokens {
		if n, err := strconv.Atoi(qt); err == nil {
			if strings.Contains(lower, qt) {
				score++
			} else if minUnits > 0 && maxUnits >= minUnits && n >= minUnits && n <= maxUnits {
				score++
			}
			continue
		}
		if target[qt] {
			score++
		}
	}
	return score
}

// rankServices orders services by token overlap with the query. When nothing
// scores above zero the full unfiltered list comes back, since an empty
// result would dead-end the conversation.
func rankServices(query string, services []models.Service) ([]models.Service, bool) {
	queryTokens := expandQuery(query)
	if len(queryTokens) == 0 {
		return services, false
	}

	type scored struct {
		svc   models.Service
		score int
	}
	var hits []scored
	for _, svc := range services {
		s := scoreText(queryTokens, svc.Name+" "+svc.Description, svc.MinUnits, svc.MaxUnits)
		if s > 0 {
			hits = append(hits, scored{svc, s})
		}
	}
	if len(hits) == 0 {
		return services, false
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]models.Service, len(hits))
	for i, h := range hits {
		out[i] = h.svc
	}
	return out, true
}

// rankFAQs is the FAQ counterpart of rankServices, with the same full-list
// fallback.
func rankFAQs(query string, faqs []models.FAQ) ([]models.FAQ, bool) {
	queryTokens := expandQuery(query)
	if len(queryTokens) == 0 {
		return faqs, false
	}

	type scored struct {
		faq   models.FAQ
		score int
	}
	var hits []scored
	for _, faq := range faqs {
		s := scoreText(queryTokens, faq.Question+" "+faq.Answer, 0, 0)
		if s > 0 {
			hits = append(hits, scored{faq, s})
		}
	}
	if len(hits) == 0 {
		return faqs, false
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]models.FAQ, len(hits))
	for i, h := range hits {
		out[i] = h.faq
	}
	return out, true
}

// normalizeServiceName prepares a name for fuzzy matching: lower-case, drop
// the word "cleaning", collapse everything non-alphanumeric.
func normalizeServiceName(name string) string {
	lower := strings.ToLower(name)
	lower = strings.ReplaceAll(lower, "cleaning", "")
	var b strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchServiceByName resolves a free-text name: exact normalized match first,
// then substring containment either way, preferring the longest matching
// candidate name so a generic fragment never shadows a specific service.
func matchServiceByName(name string, services []models.Service) *models.Service {
	norm := normalizeServiceName(name)
	if norm == "" {
		return nil
	}

	for i := range services {
		if normalizeServiceName(services[i].Name) == norm {
			return &services[i]
		}
	}

	var best *models.Service
	bestLen := 0
	for i := range services {
		candidate := normalizeServiceName(services[i].Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, norm) || strings.Contains(norm, candidate) {
			if len(candidate) > bestLen {
				best = &services[i]
				bestLen = len(candidate)
			}
		}
	}
	return best
}
