package entity

import "strings"

// Temas de preguntas frecuentes.
const (
	FAQShipping      = "envios"
	FAQExchanges     = "cambios"
	FAQPayments      = "pagos"
	FAQLoyaltyPoints = "puntos"
)

// faqAliases nombres alternativos aceptados para cada tema.
var faqAliases = map[string]string{
	"shipping":      FAQShipping,
	"exchanges":     FAQExchanges,
	"payments":      FAQPayments,
	"loyaltypoints": FAQLoyaltyPoints,
}

// FAQ respuestas fijas por tema. Inmutable después de NewFAQ.
type FAQ struct {
	answers map[string]string
}

// NewFAQ copia el mapa recibido; las claves pueden ser canónicas o alias.
func NewFAQ(answers map[string]string) *FAQ {
	f := &FAQ{answers: make(map[string]string, len(answers))}
	for k, v := range answers {
		f.answers[CanonicalFAQTopic(k)] = v
	}
	return f
}

// Answer devuelve la respuesta del tema o "" si el tema no existe.
func (f *FAQ) Answer(topic string) string {
	if f == nil {
		return ""
	}
	return f.answers[CanonicalFAQTopic(topic)]
}

// CanonicalFAQTopic normaliza alias ("shipping" → "envios").
func CanonicalFAQTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	if c, ok := faqAliases[t]; ok {
		return c
	}
	return t
}
