package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSKU deja el SKU en su forma canónica: sin tildes, en mayúsculas y con los
// espacios internos colapsados a un guion. "  café  molido 500g" -> "CAFE-MOLIDO-500G".
func NormalizeSKU(raw string) string {
	// transform.Chain guarda estado: se construye uno por llamada.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	return strings.ToUpper(strings.Join(strings.Fields(folded), "-"))
}
