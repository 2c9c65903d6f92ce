package model

import "strings"

// NormalizeTaxID strips CNPJ punctuation ("12.345.678/0001-95" → "12345678000195")
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidTaxID checks a CNPJ: 14 digits, not all equal, both check digits correct.
// Punctuation is ignored.
func ValidTaxID(s string) bool {
	d := NormalizeTaxID(s)
	if len(d) != 14 {
		return false
	}
	if strings.Count(d, d[:1]) == 14 {
		return false
	}
	digits := make([]int, 14)
	for i := range d {
		digits[i] = int(d[i] - '0')
	}
	return checkDigit(digits[:12], []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}) == digits[12] &&
		checkDigit(digits[:13], []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}) == digits[13]
}

func checkDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

var stateCodes = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// ValidStateCode reports whether uf is one of the 27 federative units
func ValidStateCode(uf string) bool {
	_, ok := stateCodes[strings.ToUpper(uf)]
	return ok
}
